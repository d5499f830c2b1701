package errors_test

import (
	"fmt"

	"github.com/agentstation/propsync/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := &errors.NotFoundError{
		Resource: "property",
		ID:       "X-1",
	}

	if errors.IsNotFound(err) {
		fmt.Println("Property not found")
	}

	// Output: Property not found
}

// Example_rateLimitError shows how an outbound write decides whether to retry.
func Example_rateLimitError() {
	err := errors.NewAPIError("records", 429, "Rate limit exceeded")

	if errors.IsRateLimited(err) {
		fmt.Println("Rate limited - retry with backoff")
	} else {
		fmt.Println("Permanent failure - give up")
	}

	// Output: Rate limited - retry with backoff
}

// Example_partitionFailure shows how a failed partition fetch is classified.
func Example_partitionFailure() {
	cause := errors.NewAPIError("records", 503, "maintenance")
	err := errors.WrapSource("viwSold", "list", cause)

	fmt.Println(errors.IsSourceUnavailable(err))
	fmt.Println(err)

	// Output:
	// true
	// source error for partition viwSold during list: API error from records (status 503): maintenance
}
