package resources

import "strings"

// Attribute names shared by the User, Review and Business tables.
const (
	AttrUserID            = "userId"
	AttrUniqueID          = "uniqueId"
	AttrBusinessID        = "businessId"
	AttrBusinessIDs       = "businessIds"
	AttrActiveBusinessID  = "activeBusinessId"
	AttrGoogle            = "google"
	AttrBusinessAccountID = "businessAccountId"
	AttrLineUsername      = "lineUsername"
	AttrBusinessName      = "businessName"
	AttrUserIDs           = "userIds"
	AttrVendorReviewID    = "vendorReviewId"
	AttrCreatedAt         = "createdAt"
)

// UserSortKey is the fixed sort key value of every user record.
const UserSortKey = "#"

// UniqueVendorReviewIDPrefix marks the sort key of a review table record that only
// exists to keep a vendor review id unique within an owner partition.
const UniqueVendorReviewIDPrefix = "#UNIQUE_VENDOR_REVIEW_ID#"

// UniqueVendorReviewIDSortKey returns the sort key of the uniqueness marker for vendorReviewID.
func UniqueVendorReviewIDSortKey(vendorReviewID string) string {
	return UniqueVendorReviewIDPrefix + vendorReviewID
}

// IsUniqueVendorReviewIDSortKey reports whether a review sort key belongs to a uniqueness marker.
func IsUniqueVendorReviewIDSortKey(sortKey string) bool {
	return strings.HasPrefix(sortKey, UniqueVendorReviewIDPrefix)
}
