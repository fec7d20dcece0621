package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-keeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quote-keeper/internal/domain"
	"github.com/jsamuelsen/quote-keeper/internal/mocks"
	"github.com/jsamuelsen/quote-keeper/internal/ports"
)

type serviceFixture struct {
	svc     *QuoteService
	store   *QuoteStore
	kv      *memory.Store
	session *memory.Store
	notes   *recordingNotifier
}

func newServiceFixture(t *testing.T, mirror ports.RemoteMirror, syncOnWrite bool, quotes ...domain.Quote) *serviceFixture {
	t.Helper()

	store, kv := newLoadedStore(t, quotes...)
	session := memory.New()
	notes := &recordingNotifier{}

	if mirror == nil {
		mirror = NewStoredMirror(kv, discardLogger())
	}

	svc := NewQuoteService(QuoteServiceConfig{
		Store:    store,
		Filter:   NewFilterState(kv, discardLogger()),
		Transfer: NewTransfer(TransferConfig{Store: store, Logger: discardLogger()}),
		Engine: NewSyncEngine(SyncEngineConfig{
			Store:    store,
			Mirror:   mirror,
			Notifier: notes,
			Logger:   discardLogger(),
		}),
		Session:     session,
		SyncOnWrite: syncOnWrite,
		Logger:      discardLogger(),
	})

	return &serviceFixture{svc: svc, store: store, kv: kv, session: session, notes: notes}
}

func TestNewQuoteService_PanicsOnMissingCollaborator(t *testing.T) {
	store, kv := newLoadedStore(t)
	full := QuoteServiceConfig{
		Store:    store,
		Filter:   NewFilterState(kv, discardLogger()),
		Transfer: NewTransfer(TransferConfig{Store: store}),
		Engine:   NewSyncEngine(SyncEngineConfig{Store: store, Mirror: NewStoredMirror(kv, nil)}),
		Session:  memory.New(),
	}

	require.NotPanics(t, func() { NewQuoteService(full) })

	tests := []struct {
		name  string
		strip func(*QuoteServiceConfig)
	}{
		{name: "store", strip: func(c *QuoteServiceConfig) { c.Store = nil }},
		{name: "filter", strip: func(c *QuoteServiceConfig) { c.Filter = nil }},
		{name: "transfer", strip: func(c *QuoteServiceConfig) { c.Transfer = nil }},
		{name: "engine", strip: func(c *QuoteServiceConfig) { c.Engine = nil }},
		{name: "session", strip: func(c *QuoteServiceConfig) { c.Session = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.strip(&cfg)

			assert.Panics(t, func() { NewQuoteService(cfg) })
		})
	}
}

func TestQuoteService_AddQuote(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), false, q("a", "Life"))

	added, err := f.svc.AddQuote(ctx, "b", "Work")

	require.NoError(t, err)
	assert.Equal(t, q("b", "Work"), added)
	assert.Equal(t, 2, f.svc.Len())
	assert.Equal(t, []string{"Life", "Work"}, f.svc.Categories())
}

func TestQuoteService_AddQuoteRejectsBlank(t *testing.T) {
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), true, q("a", "Life"))

	_, err := f.svc.AddQuote(context.Background(), "", "Work")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 1, f.svc.Len())
}

func TestQuoteService_AddQuoteSyncsWhenEnabled(t *testing.T) {
	ctx := context.Background()

	mirror := mocks.NewMockRemoteMirror(t)
	mirror.EXPECT().Fetch(mock.Anything).Return([]domain.Quote{q("a", "Life")}, nil)
	mirror.EXPECT().Push(mock.Anything, []domain.Quote{q("a", "Life"), q("b", "Work")}).Return(nil)

	f := newServiceFixture(t, mirror, true, q("a", "Life"))

	_, err := f.svc.AddQuote(ctx, "b", "Work")

	require.NoError(t, err)
}

func TestQuoteService_FollowUpSyncFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()

	mirror := mocks.NewMockRemoteMirror(t)
	mirror.EXPECT().Fetch(mock.Anything).Return(nil, domain.NewUnavailableError("remote", "down"))

	f := newServiceFixture(t, mirror, true, q("a", "Life"))

	_, err := f.svc.AddQuote(ctx, "b", "Work")

	require.NoError(t, err)
	assert.Equal(t, 2, f.svc.Len())
	assert.Equal(t, []string{MsgSyncFailed}, f.notes.got)
}

func TestQuoteService_FilteredQuotes(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), false,
		q("a", "Life"), q("b", "Work"), q("c", "Life"))

	assert.Equal(t, domain.CategoryAll, f.svc.CurrentCategory(ctx))
	assert.Len(t, f.svc.FilteredQuotes(ctx), 3)

	require.NoError(t, f.svc.SelectCategory(ctx, "Life"))

	assert.Equal(t, []domain.Quote{q("a", "Life"), q("c", "Life")}, f.svc.FilteredQuotes(ctx))
	assert.Equal(t, []domain.Quote{q("b", "Work")}, f.svc.Quotes("Work"))
}

func TestQuoteService_ShowRandom(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), false,
		q("a", "Life"), q("b", "Work"), q("c", "Life"))

	require.NoError(t, f.svc.SelectCategory(ctx, "Life"))

	var gotN int

	f.svc.intn = func(n int) int {
		gotN = n
		return n - 1
	}

	shown, err := f.svc.ShowRandom(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, gotN, "draws only among the filtered quotes")
	assert.Equal(t, q("c", "Life"), shown)

	last, err := f.svc.LastQuote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c - Life", last)

	_, err = f.kv.Get(ctx, LastQuoteKey)
	assert.True(t, domain.IsNotFound(err), "last quote lives only in the session store")
}

func TestQuoteService_ShowRandomEmpty(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), false, q("a", "Life"))

	require.NoError(t, f.svc.SelectCategory(ctx, "Gone"))
	require.NoError(t, f.session.Set(ctx, LastQuoteKey, "a - Life"))

	_, err := f.svc.ShowRandom(ctx)

	require.ErrorIs(t, err, ErrNoQuotes)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, MsgNoQuotes, err.Error())

	last, err := f.svc.LastQuote(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a - Life", last, "empty draw leaves the last quote alone")
}

func TestQuoteService_ShowRandomSessionFailure(t *testing.T) {
	ctx := context.Background()
	store, kv := newLoadedStore(t, q("a", "Life"))

	session := mocks.NewMockKeyValueStore(t)
	session.EXPECT().Set(mock.Anything, LastQuoteKey, "a - Life").Return(errors.New("full"))

	svc := NewQuoteService(QuoteServiceConfig{
		Store:    store,
		Filter:   NewFilterState(kv, discardLogger()),
		Transfer: NewTransfer(TransferConfig{Store: store, Logger: discardLogger()}),
		Engine:   NewSyncEngine(SyncEngineConfig{Store: store, Mirror: mocks.NewMockRemoteMirror(t)}),
		Session:  session,
		Logger:   discardLogger(),
	})

	shown, err := svc.ShowRandom(ctx)

	require.NoError(t, err)
	assert.Equal(t, q("a", "Life"), shown)
}

func TestQuoteService_LastQuoteBeforeAnyDraw(t *testing.T) {
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), false)

	_, err := f.svc.LastQuote(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestQuoteService_ExportImport(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), false, q("a", "Life"))

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(ctx, &buf))

	n, err := f.svc.Import(ctx, &buf)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []domain.Quote{q("a", "Life"), q("a", "Life")}, f.store.Quotes())
}

func TestQuoteService_ImportFailureSkipsSync(t *testing.T) {
	f := newServiceFixture(t, mocks.NewMockRemoteMirror(t), true, q("a", "Life"))

	n, err := f.svc.Import(context.Background(), strings.NewReader(`{"text":"a"}`))

	require.Error(t, err)
	assert.True(t, domain.IsFormat(err))
	assert.Zero(t, n)
	assert.Empty(t, f.notes.got)
}

func TestQuoteService_Sync(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, nil, false, domain.SeedQuotes()...)

	res, err := f.svc.Sync(ctx)

	require.NoError(t, err)
	assert.Equal(t, SyncMerged, res.Outcome)
	assert.Equal(t, len(domain.SeedQuotes())+len(domain.ServerSeedQuotes()), f.svc.Len())
	assert.Equal(t, []string{MsgSynced}, f.notes.got)
}
