package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	lastIn  *ssm.GetParameterInput
	callCnt int
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	f.callCnt++
	return f.getOut, f.getErr
}

func strPtr(s string) *string { return &s }

func paramOut(value string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p"), Value: strPtr(value)}}
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeAPI{getOut: paramOut(`{"k":"v"}`)}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), " p ")
	require.NoError(t, err)
	require.Equal(t, `{"k":"v"}`, v)
	require.Equal(t, "p", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: strPtr("p")}}}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "missing value")
}

func TestGetParameter_ApiError(t *testing.T) {
	client, err := New(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")
}

func TestGetParameter_ClientNotInitialized(t *testing.T) {
	_, err := (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")
}

func TestGetParameter_EmptyName(t *testing.T) {
	api := &fakeAPI{}
	client, err := New(api)
	require.NoError(t, err)
	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
	require.Zero(t, api.callCnt)
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "must not be nil")
}

func TestGetToken(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		apiErr  error
		want    string
		wantErr string
	}{
		{name: "json token", value: `{"token":"sk-from-json"}`, want: "sk-from-json"},
		{name: "token trimmed", value: `{"token":"  hf-123 "}`, want: "hf-123"},
		{name: "missing token field", value: `{"other":"value"}`, wantErr: "is empty"},
		{name: "malformed json", value: `{"broken`, wantErr: "unmarshal"},
		{name: "api error", apiErr: errors.New("ssm unavailable"), wantErr: "ssm unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{getErr: tc.apiErr}
			if tc.apiErr == nil {
				api.getOut = paramOut(tc.value)
			}
			client, err := New(api)
			require.NoError(t, err)

			got, err := client.GetToken(context.Background(), "/portfolio-chat/open-ai-token")
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
