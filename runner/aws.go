package runner

import (
	"net/http"

	counter "github.com/Clever/aws-sdk-go-counter"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// newDynamoDB returns a DynamoDB client whose calls are counted by awsCounter.
func newDynamoDB(c Config, awsCounter *counter.Counter) (*dynamodb.DynamoDB, error) {
	dynamoTransport := tracedTransport("go-aws", "dynamodb", func(operation string, _ *http.Request) string {
		return operation
	})
	config := aws.Config{
		Region:     aws.String(c.DynamoRegion),
		MaxRetries: aws.Int(c.DynamoMaxRetries),
		HTTPClient: &http.Client{Transport: dynamoTransport},
	}
	if c.DynamoEndpoint != "" {
		config.Endpoint = aws.String(c.DynamoEndpoint)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            config,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}
	sess.Handlers.Send.PushFront(awsCounter.SessionHandler)
	return dynamodb.New(sess), nil
}

// This can be used when more detailed instrumentation is not available, as of writing
// aws-sdk-go v1 has none.
func tracedTransport(component string, peerService string, spanNamer func(operation string, req *http.Request) string) http.RoundTripper {
	return otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(spanNamer),
		otelhttp.WithSpanOptions(
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("peer.service", peerService), attribute.String("component", component)),
		),
	)
}
