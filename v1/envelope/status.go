package envelope

import "fmt"

// Status is the outcome code carried by a ResponseMessage.
type Status int32

const (
	StatusSuccess Status = iota
	StatusInsufficientFunds
	StatusMalformedMessage
	StatusConflict
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case StatusMalformedMessage:
		return "MALFORMED_MESSAGE"
	case StatusConflict:
		return "CONFLICT"
	case StatusInternalError:
		return "INTERNAL_ERROR"
	default:
		return fmt.Sprintf("STATUS(%d)", int32(s))
	}
}

// IsSuccess reports whether s is StatusSuccess.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
