package domain

// Message is a fully decoded DNS message: header, the single question this
// resolver supports, and the three record sections. The wire codec
// (internal/dns/wire) is the only package that converts between Message and
// its byte-slice form.
type Message struct {
	Header     Header
	Question   Question
	Answer     []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}

// NewQuery builds an outbound iterative query message for the given
// question, addressed to a single upstream server.
func NewQuery(id uint16, q Question) Message {
	return Message{
		Header:   NewQueryHeader(id),
		Question: q,
	}
}

// NewReply builds a reply message to send back to a client, echoing its
// query ID and RD bit.
func NewReply(queryID uint16, rd bool, q Question, rcode RCode, answer, authority, additional []ResourceRecord) Message {
	return Message{
		Header:     NewReplyHeader(queryID, rd, rcode, uint16(len(answer)), uint16(len(authority)), uint16(len(additional))),
		Question:   q,
		Answer:     answer,
		Authority:  authority,
		Additional: additional,
	}
}
