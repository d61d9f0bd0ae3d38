package tracker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// MockStore is a testify mock of the journal.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Participant), args.Error(1)
}

func (m *MockStore) AppendExpenses(ctx context.Context, entries []models.ExpenseEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *MockStore) ListPendingExpenses(ctx context.Context) ([]models.ExpenseEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.ExpenseEntry), args.Error(1)
}

func (m *MockStore) LastExpenseSeq(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) BeginRound(ctx context.Context, round *models.Round) error {
	args := m.Called(ctx, round)
	return args.Error(0)
}

func (m *MockStore) FinishRound(ctx context.Context, round *models.Round, offsets []models.ExpenseEntry) error {
	args := m.Called(ctx, round, offsets)
	return args.Error(0)
}

func (m *MockStore) ListRounds(ctx context.Context) ([]models.Round, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Round), args.Error(1)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}

var _ storage.Store = (*MockStore)(nil)

var errDiskFull = errors.New("disk full")

// journaledLedger registers ids through a store that accepts participants and
// expenses. The port reports every debtor as funded.
func journaledLedger(t *testing.T, ids ...string) (*Ledger, *MockStore, *MockTransfer, *recorder) {
	t.Helper()

	store := &MockStore{}
	port := &MockTransfer{}
	rec := &recorder{}
	l := New(port, WithStore(store), WithNotifier(rec))

	store.On("CreateParticipant", mock.Anything, mock.Anything).Return(nil)
	port.On("BalanceOf", mock.Anything, mock.Anything).Return(units(1000), nil)
	for _, id := range ids {
		_, err := l.Register(context.Background(), id, id)
		require.NoError(t, err)
	}
	return l, store, port, rec
}

func TestRegister_StoreFailure(t *testing.T) {
	ctx := context.Background()
	store := &MockStore{}
	l := New(&MockTransfer{}, WithStore(store))

	store.On("CreateParticipant", mock.Anything, mock.Anything).Return(errDiskFull).Once()
	_, err := l.Register(ctx, "0xA", "A")
	require.ErrorIs(t, err, errDiskFull)
	assert.Equal(t, 0, l.Count())
	_, ok := l.Lookup("0xA")
	assert.False(t, ok)

	store.On("CreateParticipant", mock.Anything, mock.Anything).Return(nil).Once()
	ordinal, err := l.Register(ctx, "0xA", "A")
	require.NoError(t, err)
	assert.Equal(t, 1, ordinal, "a failed registration does not consume an ordinal")
}

func TestRecord_StoreFailure(t *testing.T) {
	ctx := context.Background()
	l, store, _, _ := journaledLedger(t, "p1", "p2")

	store.On("AppendExpenses", mock.Anything, mock.Anything).Return(errDiskFull).Once()
	_, err := l.Record(ctx, "p1", "p2", units(10))
	require.ErrorIs(t, err, errDiskFull)
	assert.Empty(t, l.Entries())

	store.On("AppendExpenses", mock.Anything, mock.Anything).Return(nil)
	seq, err := l.Record(ctx, "p1", "p2", units(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq, "a failed append does not consume a sequence number")
}

func TestSettle_BeginRoundFailure(t *testing.T) {
	ctx := context.Background()
	l, store, port, rec := journaledLedger(t, "p1", "p2")
	store.On("AppendExpenses", mock.Anything, mock.Anything).Return(nil)
	_, err := l.Record(ctx, "p1", "p2", units(10))
	require.NoError(t, err)

	store.On("BeginRound", mock.Anything, mock.Anything).Return(errDiskFull)

	round, err := l.Settle(ctx)
	require.ErrorIs(t, err, errDiskFull)
	assert.Nil(t, round)
	port.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "FinishRound", mock.Anything, mock.Anything, mock.Anything)
	assert.Len(t, l.Entries(), 1)
	assert.Empty(t, l.Rounds())
	assert.Empty(t, rec.finished)
}

func TestSettle_FinishRoundFailureAfterTransfers(t *testing.T) {
	ctx := context.Background()
	l, store, port, rec := journaledLedger(t, "p1", "p2")
	store.On("AppendExpenses", mock.Anything, mock.Anything).Return(nil)
	_, err := l.Record(ctx, "p1", "p2", units(10))
	require.NoError(t, err)

	store.On("BeginRound", mock.Anything, mock.MatchedBy(func(r *models.Round) bool {
		return r.Status == models.RoundInProgress
	})).Return(nil)
	port.On("Transfer", mock.Anything, "p1", "p2", amountOf(10)).Return(nil)
	store.On("FinishRound", mock.Anything, mock.Anything, mock.Anything).Return(errDiskFull)

	round, err := l.Settle(ctx)
	require.ErrorIs(t, err, errDiskFull)
	require.NotNil(t, round)
	assert.Equal(t, models.RoundCompleted, round.Status)
	assert.Equal(t, []string{"1:p1->p2:10"}, legStrings(round.Legs))

	assert.Empty(t, l.Entries(), "executed transfers clear the ledger even when the journal write fails")
	require.Len(t, l.Rounds(), 1)
	assert.Len(t, rec.finished, 1)
	store.AssertCalled(t, "FinishRound", mock.Anything, mock.Anything, []models.ExpenseEntry(nil))
}

func TestSettle_FinishRoundFailureAfterTransferFailure(t *testing.T) {
	ctx := context.Background()
	l, store, port, rec := journaledLedger(t, "a", "b", "c")
	store.On("AppendExpenses", mock.Anything, mock.Anything).Return(nil)
	_, err := l.Record(ctx, "a", "c", units(100))
	require.NoError(t, err)
	_, err = l.Record(ctx, "b", "c", units(100))
	require.NoError(t, err)

	refused := errors.New("transfer amount exceeds allowance")
	store.On("BeginRound", mock.Anything, mock.Anything).Return(nil)
	port.On("Transfer", mock.Anything, "a", "c", amountOf(100)).Return(nil).Once()
	port.On("Transfer", mock.Anything, "b", "c", amountOf(100)).Return(refused).Once()
	store.On("FinishRound", mock.Anything, mock.Anything, mock.MatchedBy(func(offsets []models.ExpenseEntry) bool {
		return len(offsets) == 1 && offsets[0].Seq == 3 &&
			offsets[0].Debtor == "c" && offsets[0].Payer == "a" && offsets[0].Amount.Equal(units(100))
	})).Return(errDiskFull)

	round, err := l.Settle(ctx)
	require.ErrorIs(t, err, ErrTransferExecutionFailed)
	require.ErrorIs(t, err, refused)
	require.ErrorIs(t, err, errDiskFull)
	require.NotNil(t, round)
	assert.Equal(t, models.RoundFailed, round.Status)
	assert.Empty(t, rec.finished)
	store.AssertExpectations(t)

	// The offset applies in memory even though the journal write failed.
	entries := l.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[2].Debtor)
	_, plan, err := l.Preview(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"1:b->c:100"}, legStrings(plan))

	seq, err := l.Record(ctx, "a", "b", units(1))
	require.NoError(t, err)
	assert.Equal(t, int64(4), seq)
}
