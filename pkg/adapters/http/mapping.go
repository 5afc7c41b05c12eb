package http

import (
	"github.com/praekeltfoundation/vaccine-eligibility-sub001/pkg/domain"
)

func mapMessageToDomain(m Message) domain.Message {
	msg := domain.Message{
		FromAddr:      m.FromAddr,
		ToAddr:        m.ToAddr,
		TransportName: m.TransportName,
		TransportType: domain.TransportType(m.TransportType),
		Content:       m.Content,
	}
	if m.MessageId != nil {
		msg.MessageID = *m.MessageId
	}
	if m.InReplyTo != nil {
		msg.InReplyTo = *m.InReplyTo
	}
	if m.SessionEvent != nil {
		msg.SessionEvent = domain.SessionEvent(*m.SessionEvent)
	}
	if m.TransportMetadata != nil {
		msg.TransportMetadata = *m.TransportMetadata
	}
	if m.HelperMetadata != nil {
		msg.HelperMetadata = *m.HelperMetadata
	}
	return msg
}

func mapMessageFromDomain(msg domain.Message) Message {
	event := MessageSessionEvent(msg.SessionEvent)
	m := Message{
		Content:       msg.Content,
		FromAddr:      msg.FromAddr,
		MessageId:     ptr(msg.MessageID),
		SessionEvent:  &event,
		ToAddr:        msg.ToAddr,
		TransportName: msg.TransportName,
		TransportType: MessageTransportType(msg.TransportType),
	}
	if msg.InReplyTo != "" {
		m.InReplyTo = ptr(msg.InReplyTo)
	}
	if msg.TransportMetadata != nil {
		m.TransportMetadata = ptr(msg.TransportMetadata)
	}
	if msg.HelperMetadata != nil {
		m.HelperMetadata = ptr(msg.HelperMetadata)
	}
	return m
}

func mapMessagesFromDomain(msgs []domain.Message) []Message {
	out := make([]Message, len(msgs))
	for i, msg := range msgs {
		out[i] = mapMessageFromDomain(msg)
	}
	return out
}

func mapUserFromDomain(u *domain.User) User {
	answers := make(map[string]string)
	if u.Answers != nil {
		for pair := u.Answers.Oldest(); pair != nil; pair = pair.Next() {
			answers[pair.Key] = pair.Value
		}
	}
	state := map[string]interface{}{"name": u.State.Name}
	out := User{
		Addr:      u.Addr,
		Answers:   &answers,
		SessionId: u.SessionID,
		State:     &state,
	}
	if u.Lang != "" {
		out.Lang = ptr(u.Lang)
	}
	if u.Metadata != nil {
		out.Metadata = ptr(u.Metadata)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
