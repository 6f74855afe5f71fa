package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/require"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	return schema.StreamReaderFromArray([]*schema.Message{f.reply}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

func TestServiceGenerateBuildsSystemAndUserMessages(t *testing.T) {
	fake := &fakeChatModel{reply: schema.AssistantMessage("pong", nil)}
	svc, err := newServiceWithModel(context.Background(), fake)
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "you are glitch", "ping")
	require.NoError(t, err)
	require.Equal(t, "pong", out.Text)
	require.False(t, out.Blocked)

	require.Len(t, fake.input, 2)
	require.Equal(t, schema.System, fake.input[0].Role)
	require.Equal(t, "you are glitch", fake.input[0].Content)
	require.Equal(t, schema.User, fake.input[1].Role)
	require.Equal(t, "ping", fake.input[1].Content)
}

func TestServiceGenerateContentFilter(t *testing.T) {
	reply := schema.AssistantMessage("", nil)
	reply.ResponseMeta = &schema.ResponseMeta{FinishReason: "content_filter"}
	svc, err := newServiceWithModel(context.Background(), &fakeChatModel{reply: reply})
	require.NoError(t, err)

	out, err := svc.Generate(context.Background(), "sys", "q")
	require.NoError(t, err)
	require.True(t, out.Blocked)
	require.Contains(t, out.Reply(), "content filtering")
}

func TestServiceGenerateClassifiesUpstreamStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &arkmodel.APIError{HTTPStatusCode: 401, Message: "invalid api key"}, ErrUpstreamUnauthorized},
		{"forbidden", &arkmodel.APIError{HTTPStatusCode: 403}, ErrUpstreamUnauthorized},
		{"throttled", &arkmodel.APIError{HTTPStatusCode: 429}, ErrUpstreamRateLimited},
		{"request error", &arkmodel.RequestError{HTTPStatusCode: 429, Err: errors.New("slow down")}, ErrUpstreamRateLimited},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := newServiceWithModel(context.Background(), &fakeChatModel{err: tc.err})
			require.NoError(t, err)

			_, err = svc.Generate(context.Background(), "sys", "q")
			require.ErrorIs(t, err, tc.want)
		})
	}

	svc, err := newServiceWithModel(context.Background(), &fakeChatModel{err: &arkmodel.APIError{HTTPStatusCode: 500}})
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "sys", "q")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUpstreamUnauthorized)
	require.NotErrorIs(t, err, ErrUpstreamRateLimited)
}
