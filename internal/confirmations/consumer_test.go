package confirmations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "coachbook/pkg/errors"
	"coachbook/pkg/kafka"
	"coachbook/pkg/logger"
)

type stubConfirmer struct {
	confirmed []string
	err       error
}

func (s *stubConfirmer) ConfirmByClient(ctx context.Context, id string) error {
	if s.err != nil {
		return s.err
	}
	s.confirmed = append(s.confirmed, id)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

func replyMessage(payload string) kafka.Message {
	return kafka.Message{
		Key:     "686f0000000000000000a001",
		Value:   []byte(payload),
		Headers: map[string]string{kafka.HeaderEventType: EventConfirmationReply},
	}
}

func TestReplyHandler_RecordsPositiveReply(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := NewReplyHandler(confirmer, testLogger())

	msg := replyMessage(`{"booking_id":"686f0000000000000000b001","confirmed":true}`)
	require.NoError(t, handler(context.Background(), msg))
	assert.Equal(t, []string{"686f0000000000000000b001"}, confirmer.confirmed)
}

func TestReplyHandler_DeclineIsLoggedOnly(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := NewReplyHandler(confirmer, testLogger())

	msg := replyMessage(`{"booking_id":"686f0000000000000000b001","confirmed":false}`)
	require.NoError(t, handler(context.Background(), msg))
	assert.Empty(t, confirmer.confirmed)
}

func TestReplyHandler_MalformedPayloadIsPermanent(t *testing.T) {
	handler := NewReplyHandler(&stubConfirmer{}, testLogger())

	err := handler(context.Background(), replyMessage(`{not json`))
	require.Error(t, err)
	assert.True(t, kafka.IsPermanent(err))

	err = handler(context.Background(), replyMessage(`{"confirmed":true}`))
	require.Error(t, err)
	assert.True(t, kafka.IsPermanent(err))
}

func TestReplyHandler_UnknownBookingIsPermanent(t *testing.T) {
	confirmer := &stubConfirmer{err: apperrors.NotFoundWithID("Booking", "686f0000000000000000b001")}
	handler := NewReplyHandler(confirmer, testLogger())

	err := handler(context.Background(), replyMessage(`{"booking_id":"686f0000000000000000b001","confirmed":true}`))
	require.Error(t, err)
	assert.True(t, kafka.IsPermanent(err))
}

func TestReplyHandler_InfrastructureErrorIsRetried(t *testing.T) {
	confirmer := &stubConfirmer{err: apperrors.Internal("mongo unreachable", nil)}
	handler := NewReplyHandler(confirmer, testLogger())

	err := handler(context.Background(), replyMessage(`{"booking_id":"686f0000000000000000b001","confirmed":true}`))
	require.Error(t, err)
	assert.False(t, kafka.IsPermanent(err))
}

func TestReplyHandler_SkipsUnrelatedEvents(t *testing.T) {
	confirmer := &stubConfirmer{}
	handler := NewReplyHandler(confirmer, testLogger())

	msg := kafka.Message{
		Key:     "686f0000000000000000a001",
		Value:   []byte(`{"booking_id":"686f0000000000000000b001","confirmed":true}`),
		Headers: map[string]string{kafka.HeaderEventType: "booking.created"},
	}
	require.NoError(t, handler(context.Background(), msg))
	assert.Empty(t, confirmer.confirmed)
}
