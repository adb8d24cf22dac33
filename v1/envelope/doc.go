// Package envelope holds the message envelopes exchanged between services and
// the trace log written when a service handles one.
//
// A TraceableMessage carries a payload plus the producer's application tag,
// a business taxonomy id and a correlation id. A ResponseMessage answers a
// request and adds a Status and an error message:
//
//	msg := envelope.NewTraceableMessage(TransferRequest{Amount: 100})
//	msg.ProducerAit = "27834"
//	msg.CorrelationID = uuid
//
//	resp := envelope.ReplyTo[TransferResult](msg, msg.Payload)
//	if err != nil {
//	    resp.Fail(envelope.StatusInsufficientFunds, err)
//	} else {
//	    resp.Succeed(result)
//	}
//
// Both envelopes are plain structs with avro tags and serialize through the
// serde package like any other type. Register the concrete instantiations
// you decode:
//
//	serde.RegisterType[envelope.TraceableMessage[TransferRequest]](types)
//
// TraceLogger writes the line operators grep for when following a
// transaction:
//
//	TRACE SERVICE=transfer-service, AIT=12345, CLIENT-AIT=27834, BUSINESS-TAXONOMY=null, CORRELATION-ID=8d1f...
//
// Missing identifiers are printed as null. The kafka consumer calls
// TraceLogger.LogValue for every decoded message.
package envelope
