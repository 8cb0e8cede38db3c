package rpc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	req, err := NewRequest(1, "textDocument/definition", map[string]string{"uri": "file:///a.go"})
	require.NoError(t, err)
	require.NoError(t, enc.WriteMessage(req))

	dec := NewDecoder(&buf)
	got, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, KindRequest, got.Kind())
	require.Equal(t, "textDocument/definition", got.Method)
	require.EqualValues(t, 1, *got.ID)
}

func TestDecoderIgnoresContentType(t *testing.T) {
	t.Parallel()

	body := `{"jsonrpc":"2.0","method":"initialized","params":{}}`
	raw := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: " +
		itoa(len(body)) + "\r\n\r\n" + body

	dec := NewDecoder(bytes.NewBufferString(raw))
	msg, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, KindNotification, msg.Kind())
	require.Equal(t, "initialized", msg.Method)
}

func TestDecoderRejectsMissingContentLength(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(bytes.NewBufferString("Content-Type: application/json\r\n\r\n{}"))
	_, err := dec.ReadMessage()
	require.Error(t, err)
}

func TestDecoderReadsMultipleMessagesInSequence(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	n1, _ := NewNotification("a", nil)
	n2, _ := NewNotification("b", nil)
	require.NoError(t, enc.WriteMessage(n1))
	require.NoError(t, enc.WriteMessage(n2))

	dec := NewDecoder(&buf)
	m1, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "a", m1.Method)

	m2, err := dec.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "b", m2.Method)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := make([]byte, 0, 8)
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
