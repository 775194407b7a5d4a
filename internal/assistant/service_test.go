package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery-chat/internal/apperr"
	"bakery-chat/internal/jobs"
	"bakery-chat/internal/llm"
	"bakery-chat/internal/logging"
	"bakery-chat/internal/repo"
	"bakery-chat/internal/store"
	"bakery-chat/migrations"
)

type fakeCompleter struct {
	chatReply    string
	analyzeReply string
	err          error
	requests     []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	if req.Purpose == "analyze" {
		return llm.Response{Text: f.analyzeReply}, nil
	}
	return llm.Response{Text: f.chatReply}, nil
}

func (f *fakeCompleter) count(purpose string) int {
	n := 0
	for _, r := range f.requests {
		if r.Purpose == purpose {
			n++
		}
	}
	return n
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return q.err
}

type harness struct {
	svc   *Service
	store *store.Store
	llm   *fakeCompleter
	queue *fakeQueue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := logging.Discard()

	r, err := repo.NewSQLite(ctx, filepath.Join(t.TempDir(), "assistant.db"), logger)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	files, err := migrations.For("sqlite")
	require.NoError(t, err)
	require.NoError(t, r.RunMigrations(ctx, files))

	st := store.New(r, logger, store.Options{QueryTimeout: 5 * time.Second})
	fc := &fakeCompleter{chatReply: "Chào bạn! Tôi có thể gọi bạn là gì ạ?"}
	q := &fakeQueue{}
	return &harness{
		svc:   New(st, fc, q, logger, nil, Options{}),
		store: st,
		llm:   fc,
		queue: q,
	}
}

func (h *harness) seed(t *testing.T, contents ...string) string {
	t.Helper()
	ctx := context.Background()
	conv, err := h.store.CreateConversation(ctx)
	require.NoError(t, err)
	for i, c := range contents {
		role := repo.RoleUser
		if i%2 == 1 {
			role = repo.RoleAssistant
		}
		_, err := h.store.AddMessage(ctx, conv.ConversationID, repo.Message{Role: role, Content: c})
		require.NoError(t, err)
	}
	return conv.ConversationID
}

func TestChatStartsConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.svc.Chat(ctx, ChatRequest{Message: "Xin chào"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Response)
	assert.True(t, store.IsValidUUID(resp.ConversationID))
	_, perr := time.Parse(store.TimestampLayout, resp.Timestamp)
	assert.NoError(t, perr)

	conv, err := h.store.GetConversation(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Content, 2)
	assert.Equal(t, repo.RoleUser, conv.Content[0].Role)
	assert.Equal(t, "Xin chào", conv.Content[0].Content)
	assert.Equal(t, repo.RoleAssistant, conv.Content[1].Role)
	assert.Equal(t, resp.Response, conv.Content[1].Content)

	require.Len(t, h.llm.requests, 1)
	req := h.llm.requests[0]
	assert.InDelta(t, 0.7, req.Temperature, 0.001)
	assert.Equal(t, 800, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "Sweet & Fast Delights")
	assert.Contains(t, req.Messages[0].Content, "Bánh tiramisu: 45000đ")

	require.Len(t, h.queue.jobs, 1)
	assert.Equal(t, jobs.KindTurnCompleted, h.queue.jobs[0].Kind)
	assert.Equal(t, 2, h.queue.jobs[0].TotalMessages)
	assert.Equal(t, resp.ConversationID, h.queue.jobs[0].ConversationID)
}

func TestChatSavesUserInfoForNewConversation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	resp, err := h.svc.Chat(ctx, ChatRequest{Message: "Hi", UserInfo: &repo.UserInfo{Name: "Lan", Email: "lan@example.com"}})
	require.NoError(t, err)

	info, err := h.store.GetUserInfo(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Lan", info.Name)
	assert.Equal(t, 3, info.LeadQuality)
}

func TestChatReplacesInvalidConversationID(t *testing.T) {
	h := newHarness(t)

	resp, err := h.svc.Chat(context.Background(), ChatRequest{Message: "Hi", ConversationID: "conv_1754374488635_seje7a331"})
	require.NoError(t, err)
	assert.NotEqual(t, "conv_1754374488635_seje7a331", resp.ConversationID)
	assert.True(t, store.IsValidUUID(resp.ConversationID))
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Chat(context.Background(), ChatRequest{Message: "   "})
	assert.True(t, errors.Is(err, ErrEmptyMessage))
	assert.True(t, apperr.IsValidation(err))
	assert.Empty(t, h.llm.requests)
	assert.Empty(t, h.queue.jobs)
}

func TestChatSendsLastTenHistoryMessages(t *testing.T) {
	h := newHarness(t)
	contents := make([]string, 12)
	for i := range contents {
		contents[i] = string(rune('a' + i))
	}
	id := h.seed(t, contents...)

	_, err := h.svc.Chat(context.Background(), ChatRequest{Message: "now", ConversationID: id})
	require.NoError(t, err)

	msgs := h.llm.requests[0].Messages
	require.Len(t, msgs, 12)
	assert.Equal(t, "c", msgs[1].Content)
	assert.Equal(t, "l", msgs[10].Content)
	assert.Equal(t, "now", msgs[11].Content)
	assert.Equal(t, 14, h.queue.jobs[0].TotalMessages)
}

func TestChatModelFailureKeepsUserMessage(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t)
	h.llm.err = &apperr.UpstreamError{Service: "openai", StatusCode: 429, Err: errors.New("rate limited")}

	_, err := h.svc.Chat(context.Background(), ChatRequest{Message: "Hi", ConversationID: id})
	require.Error(t, err)
	assert.Equal(t, 429, apperr.UpstreamStatus(err))

	conv, err := h.store.GetConversation(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, conv.Content, 1)
	assert.Empty(t, h.queue.jobs)
}

func TestChatEnqueueFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	h.queue.err = jobs.ErrQueueFull

	resp, err := h.svc.Chat(context.Background(), ChatRequest{Message: "Hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Response)
}

func TestAnalyzeEmptyConversation(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t)

	_, err := h.svc.Analyze(context.Background(), id)
	assert.True(t, errors.Is(err, ErrEmptyConversation))
	assert.Empty(t, h.llm.requests)
}

func TestAnalyzeInputErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Analyze(context.Background(), "")
	assert.True(t, apperr.IsValidation(err))

	_, err = h.svc.Analyze(context.Background(), "8a6e0804-2bd0-4672-b79d-d97027f9071a")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAnalyzeParseFailureKeepsRaw(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t, "Xin chào", "Chào bạn")
	h.llm.analyzeReply = "Sure! Here is the analysis: {"

	_, err := h.svc.Analyze(context.Background(), id)
	var perr *apperr.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "Sure! Here is the analysis: {", perr.Raw)
}

func TestAnalyzeMergesIntoExistingRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, "Tôi là Lan", "Chào Lan")
	_, err := h.store.SaveUserInfo(ctx, id, repo.UserInfo{Name: "Lan", Email: "old@example.com"})
	require.NoError(t, err)

	h.llm.analyzeReply = `{
		"user_info": {"name": null, "email": "lan@example.com", "phone_number": "", "company": "ABC", "position": null},
		"lead_quality": "good",
		"reason": "Khách hỏi giá và muốn đặt",
		"conversation_status": "completed"
	}`

	res, err := h.svc.Analyze(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "good", res.Analysis["lead_quality"])
	require.NotNil(t, res.UserInfo)
	assert.Equal(t, "Lan", res.UserInfo.Name)
	assert.Equal(t, "lan@example.com", res.UserInfo.Email)
	assert.Equal(t, "ABC", res.UserInfo.Company)
	assert.Equal(t, 5, res.UserInfo.LeadQuality)

	req := h.llm.requests[0]
	assert.InDelta(t, 0.3, req.Temperature, 0.001)
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Contains(t, req.Messages[1].Content, "user: Tôi là Lan\nassistant: Chào Lan")

	conv, err := h.store.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, repo.StatusCompleted, conv.Status)
}

func TestAnalyzeCreatesRecordAndMapsUnknownQuality(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, "hello")
	h.llm.analyzeReply = `{"user_info": {"name": "Minh"}, "lead_quality": "meh", "reason": "", "conversation_status": "archived"}`

	res, err := h.svc.Analyze(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, res.UserInfo)
	assert.Equal(t, "Minh", res.UserInfo.Name)
	assert.Equal(t, 3, res.UserInfo.LeadQuality)

	conv, err := h.store.GetConversation(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, conv.Status)
}

func TestAnalyzeWithoutUserInfoLeavesRecordsAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, "hello")
	h.llm.analyzeReply = `{"user_info": null, "lead_quality": "spam", "reason": "bot"}`

	res, err := h.svc.Analyze(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, res.UserInfo)

	_, err = h.store.GetUserInfo(ctx, id)
	assert.True(t, apperr.IsNotFound(err))
}

func TestHandleJobAnalyzesEveryThirdMessageAndExtracts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, "Cho tôi đặt bánh", "Dạ bạn cho mình xin email nhé", "Email của mình là Minh.Tran@Example.com, sdt 0912345678")
	h.llm.analyzeReply = `{"user_info": null, "lead_quality": "ok", "reason": "đang hỏi"}`

	err := h.svc.HandleJob(ctx, jobs.Job{Kind: jobs.KindTurnCompleted, ConversationID: id, TotalMessages: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, h.llm.count("analyze"))

	info, err := h.store.GetUserInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "minh.tran@example.com", info.Email)
	assert.Equal(t, "0912345678", info.PhoneNumber)
}

func TestHandleJobSkipsAnalysisOffCycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seed(t, "a", "b", "c", "liên hệ 0987654321")
	_, err := h.store.SaveUserInfo(ctx, id, repo.UserInfo{Name: "Hoa", LeadQuality: 5})
	require.NoError(t, err)

	require.NoError(t, h.svc.HandleJob(ctx, jobs.Job{Kind: jobs.KindTurnCompleted, ConversationID: id, TotalMessages: 4}))
	assert.Zero(t, h.llm.count("analyze"))

	info, err := h.store.GetUserInfo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hoa", info.Name)
	assert.Equal(t, "0987654321", info.PhoneNumber)
	assert.Equal(t, 5, info.LeadQuality)
}

func TestHandleJobReportsAnalysisFailure(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t, "a", "b", "c", "d", "e", "f")
	h.llm.analyzeReply = "not json"

	err := h.svc.HandleJob(context.Background(), jobs.Job{Kind: jobs.KindTurnCompleted, ConversationID: id, TotalMessages: 6})
	var perr *apperr.ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestHandleJobBelowThresholdDoesNothing(t *testing.T) {
	h := newHarness(t)
	id := h.seed(t, "a", "b")

	require.NoError(t, h.svc.HandleJob(context.Background(), jobs.Job{Kind: jobs.KindTurnCompleted, ConversationID: id, TotalMessages: 2}))
	assert.Empty(t, h.llm.requests)
}

func TestHandleJobUnknownKind(t *testing.T) {
	h := newHarness(t)
	assert.Error(t, h.svc.HandleJob(context.Background(), jobs.Job{Kind: "mystery"}))
}
