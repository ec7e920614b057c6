package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

func shouldRetry(err error) bool {
	return errIsReason(err, "rateLimitExceeded") || errIsReason(err, "userRateLimitExceeded")
}

// alreadyDeleted reports whether a delete failed only because the resource is gone.
func alreadyDeleted(err error) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}
	if gErr.Code == http.StatusNotFound || gErr.Code == http.StatusGone {
		return true
	}
	return errIsReason(err, "deleted") || errIsReason(err, "notFound")
}

func errIsReason(err error, reason string) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}

	for _, item := range gErr.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}
