package migration

import (
	"fmt"

	"github.com/IntelliLead/review-migrations/resources"
)

// NumberingPolicy decides where review id consolidation starts for one owner.
type NumberingPolicy interface {
	Name() string
	// Start gets the owner's review ids in sequence order. It returns how many leading reviews
	// keep their ids and the id the first renumbered review gets. ok is false when the owner
	// should not be renumbered at all.
	Start(ids []string) (keep int, next string, ok bool, err error)
}

// RestartNumbering renumbers every owner from the first id.
type RestartNumbering struct{}

func (RestartNumbering) Name() string { return "restart" }

func (RestartNumbering) Start(ids []string) (int, string, bool, error) {
	return 0, resources.StartReviewID, true, nil
}

// ResumeAfter trusts the first Count ids of an owner and continues numbering after the last of
// them. Owners with at most Count reviews are left alone.
type ResumeAfter struct {
	Count int
}

// DefaultResumeCount is the number of single symbol ids, the range that was assigned correctly.
const DefaultResumeCount = 62

func (p ResumeAfter) Name() string { return "resume" }

func (p ResumeAfter) Start(ids []string) (int, string, bool, error) {
	if p.Count <= 0 {
		return 0, resources.StartReviewID, true, nil
	}
	if len(ids) <= p.Count {
		return 0, "", false, nil
	}
	next, err := resources.NextReviewID(ids[p.Count-1])
	if err != nil {
		return 0, "", false, err
	}
	return p.Count, next, true, nil
}

// ParseNumberingPolicy returns the policy with the given name. The empty name is restart.
func ParseNumberingPolicy(name string) (NumberingPolicy, error) {
	switch name {
	case "", "restart":
		return RestartNumbering{}, nil
	case "resume":
		return ResumeAfter{Count: DefaultResumeCount}, nil
	}
	return nil, fmt.Errorf("unknown numbering policy %q, expected restart or resume", name)
}
