package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/mpurse-network/mpurse-daemon/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func TestRequestQueue(t *testing.T) {
	q := domain.NewRequestQueue()
	_, ok := q.Head()
	require.False(t, ok)

	q.Push(newTestRequest("1", "ch1", "https://a.example"))
	q.Push(newTestRequest("2", "ch2", "https://b.example"))
	q.Push(newTestRequest("3", "ch1", "https://a.example"))
	require.Equal(t, 3, q.Len())

	head, ok := q.Head()
	require.True(t, ok)
	require.Equal(t, domain.RequestID("3"), head.ID)

	r, ok := q.Get("2")
	require.True(t, ok)
	require.Equal(t, "ch2", r.ChannelID)
	require.True(t, q.Contains("1"))
	require.False(t, q.Contains("4"))

	removed := q.RemoveByChannel("ch1")
	require.Len(t, removed, 2)
	require.Equal(t, 1, q.Len())

	r, ok = q.Remove("2")
	require.True(t, ok)
	require.Equal(t, domain.RequestID("2"), r.ID)
	require.Zero(t, q.Len())

	_, ok = q.Remove("2")
	require.False(t, ok)
}

func TestRequestQueueSameID(t *testing.T) {
	q := domain.NewRequestQueue()
	q.Push(newTestRequest("1", "ch1", "https://a.example"))
	q.Push(newTestRequest("1", "ch2", "https://b.example"))

	r, ok := q.Remove("1")
	require.True(t, ok)
	require.Equal(t, "ch2", r.ChannelID)
	require.Equal(t, 1, q.Len())

	all := q.Clear()
	require.Len(t, all, 1)
	require.Equal(t, "ch1", all[0].ChannelID)
	require.Zero(t, q.Len())
}

func TestRequestQueueSnapshot(t *testing.T) {
	q := domain.NewRequestQueue()
	q.Push(newTestRequest("1", "ch1", "https://a.example"))

	all := q.All()
	q.Push(newTestRequest("2", "ch1", "https://a.example"))
	require.Len(t, all, 1)
	require.Len(t, q.All(), 2)
}

func TestApprovalPlaceholder(t *testing.T) {
	r := newTestRequest("5", "ch1", "https://evil.example")
	r.Target = domain.TargetSend

	p := r.ApprovalPlaceholder()
	require.Equal(t, domain.TargetApprove, p.Target)
	require.Equal(t, r.ID, p.ID)
	require.Equal(t, r.Origin, p.Origin)
	require.Nil(t, p.Data)
	require.Empty(t, p.ChannelID)
}

func TestResolutionData(t *testing.T) {
	tests := []struct {
		name         string
		isSuccessful bool
		result       string
		expected     string
	}{
		{"success", true, `{"txHash":"abc"}`, `{"txHash":"abc"}`},
		{"explicit error", false, `{"error":"User Cancelled"}`, `{"error":"User Cancelled"}`},
		{"no error field", false, `{"foo":"bar"}`, `{"error":"Unknown Error"}`},
		{"no result", false, ``, `{"error":"Unknown Error"}`},
		{"not an object", false, `"oops"`, `{"error":"Unknown Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := domain.ResolutionData(tt.isSuccessful, json.RawMessage(tt.result))
			buf, err := json.Marshal(data)
			require.NoError(t, err)
			require.JSONEq(t, tt.expected, string(buf))
		})
	}
}

func newTestRequest(id, channelID, origin string) *domain.PendingRequest {
	return domain.NewPendingRequest(
		domain.TargetAddress, channelID, &domain.InboundMessage{
			Type:   domain.KindAddress,
			ID:     domain.RequestID(id),
			Origin: origin,
		},
	)
}
