package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChatMessage(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "message", body: `{"message":"hello"}`, want: "hello"},
		{name: "extra fields", body: `{"message":"hi","history":[]}`, want: "hi"},
		{name: "missing message", body: `{}`, want: ""},
		{name: "null message", body: `{"message":null}`, want: ""},
		{name: "not json", body: `not-json`, wantErr: true},
		{name: "empty body", body: ``, want: ""},
		{name: "whitespace body", body: " \n\t", want: ""},
		{name: "null body", body: `null`, wantErr: true},
		{name: "array body", body: `["hello"]`, wantErr: true},
		{name: "numeric message", body: `{"message":42}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseChatMessage([]byte(tc.body))
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
