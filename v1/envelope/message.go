package envelope

import "time"

// TraceableMessage wraps a payload with the identifiers used to follow a
// business transaction across services.
type TraceableMessage[T any] struct {
	ProducerAit           string     `avro:"producerAit"`
	BusinessTaxonomyID    string     `avro:"businessTaxonomyId"`
	CorrelationID         string     `avro:"correlationId"`
	MessageCreationTime   time.Time  `avro:"messageCreationTime"`
	MessageCompletionTime *time.Time `avro:"messageCompletionTime"`
	Payload               T          `avro:"payload"`
}

// NewTraceableMessage returns a message carrying payload, stamped with the
// current time as its creation time.
func NewTraceableMessage[T any](payload T) *TraceableMessage[T] {
	return &TraceableMessage[T]{
		MessageCreationTime: now(),
		Payload:             payload,
	}
}

// Forward copies the trace identifiers and creation time of src onto a new
// message carrying payload. The completion time is not copied.
func Forward[U, T any](src *TraceableMessage[T], payload U) *TraceableMessage[U] {
	return &TraceableMessage[U]{
		ProducerAit:         src.ProducerAit,
		BusinessTaxonomyID:  src.BusinessTaxonomyID,
		CorrelationID:       src.CorrelationID,
		MessageCreationTime: src.MessageCreationTime,
		Payload:             payload,
	}
}

// Complete records the time processing of the message finished.
func (m *TraceableMessage[T]) Complete(at time.Time) {
	m.MessageCompletionTime = &at
}

// TraceFields implements Traceable.
func (m *TraceableMessage[T]) TraceFields() TraceFields {
	return TraceFields{
		ProducerAit:        m.ProducerAit,
		BusinessTaxonomyID: m.BusinessTaxonomyID,
		CorrelationID:      m.CorrelationID,
	}
}

// ResponseMessage answers a request. It carries the request it answers, the
// response on success and a Status with an error message otherwise.
type ResponseMessage[Req, Resp any] struct {
	Status                Status     `avro:"status"`
	ErrorMessage          string     `avro:"errorMessage"`
	ProducerAit           string     `avro:"producerAit"`
	ResponderAit          string     `avro:"responderAit"`
	BusinessTaxonomyID    string     `avro:"businessTaxonomyId"`
	CorrelationID         string     `avro:"correlationId"`
	MessageCreationTime   *time.Time `avro:"messageCreationTime"`
	MessageCompletionTime *time.Time `avro:"messageCompletionTime"`
	Request               Req        `avro:"request"`
	Response              *Resp      `avro:"response"`
}

// NewResponseMessage returns a successful, untraced response to request.
func NewResponseMessage[Resp, Req any](request Req) *ResponseMessage[Req, Resp] {
	return &ResponseMessage[Req, Resp]{Status: StatusSuccess, Request: request}
}

// ReplyTo builds a response to request that carries the trace identifiers and
// timestamps of msg, so the answer can be correlated with the original message:
//
//	resp := envelope.ReplyTo[TransferResult](msg, msg.Payload)
func ReplyTo[Resp, T, Req any](msg *TraceableMessage[T], request Req) *ResponseMessage[Req, Resp] {
	created := msg.MessageCreationTime
	return &ResponseMessage[Req, Resp]{
		Status:                StatusSuccess,
		ProducerAit:           msg.ProducerAit,
		BusinessTaxonomyID:    msg.BusinessTaxonomyID,
		CorrelationID:         msg.CorrelationID,
		MessageCreationTime:   &created,
		MessageCompletionTime: msg.MessageCompletionTime,
		Request:               request,
	}
}

// Succeed sets the response and marks the message successful.
func (m *ResponseMessage[Req, Resp]) Succeed(response Resp) *ResponseMessage[Req, Resp] {
	m.Status = StatusSuccess
	m.ErrorMessage = ""
	m.Response = &response
	return m
}

// Fail marks the message with status and the message of err. A nil err
// leaves the error message empty.
func (m *ResponseMessage[Req, Resp]) Fail(status Status, err error) *ResponseMessage[Req, Resp] {
	m.Status = status
	m.ErrorMessage = ""
	if err != nil {
		m.ErrorMessage = err.Error()
	}
	return m
}

// Complete records the time processing of the request finished.
func (m *ResponseMessage[Req, Resp]) Complete(at time.Time) {
	m.MessageCompletionTime = &at
}

// TraceFields implements Traceable.
func (m *ResponseMessage[Req, Resp]) TraceFields() TraceFields {
	return TraceFields{
		ProducerAit:        m.ProducerAit,
		BusinessTaxonomyID: m.BusinessTaxonomyID,
		CorrelationID:      m.CorrelationID,
	}
}

var now = func() time.Time { return time.Now().UTC() }
