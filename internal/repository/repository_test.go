package repository

import (
	"context"
	"testing"

	"codehut/internal/dto"
	"codehut/internal/model"
	"codehut/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPurchaseRepository_UniquePerUserAndSnippet(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(db)

	seller := testutil.CreateUser(t, db, "seller")
	buyer := testutil.CreateUser(t, db, "buyer")
	snippet := testutil.CreateSnippet(t, db, seller, "10")

	first := &model.Purchase{ID: uuid.NewString(), UserID: buyer.ID, SnippetID: snippet.ID, Price: snippet.Price}
	require.NoError(t, repo.Create(ctx, db, first))

	second := &model.Purchase{ID: uuid.NewString(), UserID: buyer.ID, SnippetID: snippet.ID, Price: snippet.Price}
	err := repo.Create(ctx, db, second)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	found, err := repo.Find(ctx, nil, buyer.ID, snippet.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	missing, err := repo.Find(ctx, nil, seller.ID, snippet.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPurchaseRepository_TotalRevenue(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewPurchaseRepository(db)

	total, err := repo.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, total.IsZero())

	seller := testutil.CreateUser(t, db, "seller")
	buyer := testutil.CreateUser(t, db, "buyer")
	a := testutil.CreateSnippet(t, db, seller, "10.50")
	b := testutil.CreateSnippet(t, db, seller, "4.50")

	for _, s := range []*model.Snippet{a, b} {
		require.NoError(t, repo.Create(ctx, db, &model.Purchase{ID: uuid.NewString(), UserID: buyer.ID, SnippetID: s.ID, Price: s.Price}))
	}

	total, err = repo.TotalRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(total), "got %s", total)
}

func newOrder(t *testing.T, db *gorm.DB, repo OrderRepository, buyer, seller *model.User, snippet *model.Snippet, providerID string) *model.Order {
	t.Helper()

	order := &model.Order{
		ID:              uuid.NewString(),
		ProviderOrderID: providerID,
		Amount:          snippet.Price,
		Currency:        "INR",
		Status:          model.OrderStatusCreated,
		BuyerID:         buyer.ID,
		SellerID:        seller.ID,
		SnippetID:       snippet.ID,
		Commission:      decimal.Zero,
		SellerEarning:   snippet.Price,
	}
	require.NoError(t, repo.Create(context.Background(), db, order))
	require.NoError(t, repo.CreateTransaction(context.Background(), db, &model.PaymentTransaction{
		ID:      uuid.NewString(),
		OrderID: order.ID,
		BuyerID: buyer.ID,
		Status:  model.TransactionStatusPending,
	}))
	return order
}

func TestOrderRepository_StatusTransitions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	seller := testutil.CreateUser(t, db, "seller")
	buyer := testutil.CreateUser(t, db, "buyer")
	snippet := testutil.CreateSnippet(t, db, seller, "299")
	order := newOrder(t, db, repo, buyer, seller, snippet, "order_1")

	failed, err := repo.MarkFailed(ctx, db, order.ID, "card declined")
	require.NoError(t, err)
	assert.True(t, failed)

	// a failed order can still be paid by a later attempt
	paid, err := repo.MarkPaid(ctx, db, order.ID, "pay_1")
	require.NoError(t, err)
	assert.True(t, paid)

	paid, err = repo.MarkPaid(ctx, db, order.ID, "pay_2")
	require.NoError(t, err)
	assert.False(t, paid, "second transition must not apply")

	failed, err = repo.MarkFailed(ctx, db, order.ID, "late failure")
	require.NoError(t, err)
	assert.False(t, failed, "paid orders never fail")

	stored, err := repo.FindByProviderOrderID(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, stored.Status)
	assert.Equal(t, "pay_1", stored.ProviderPaymentID)
	assert.Empty(t, stored.FailureReason)
	assert.NotNil(t, stored.PaidAt)

	byPayment, err := repo.FindByProviderPaymentID(ctx, "pay_1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byPayment.ID)
}

func TestOrderRepository_ScopedToBuyer(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	seller := testutil.CreateUser(t, db, "seller")
	buyer := testutil.CreateUser(t, db, "buyer")
	other := testutil.CreateUser(t, db, "other")
	snippet := testutil.CreateSnippet(t, db, seller, "50")
	newOrder(t, db, repo, buyer, seller, snippet, "order_scoped")

	_, err := repo.FindByProviderOrderIDForBuyer(ctx, "order_scoped", buyer.ID)
	assert.NoError(t, err)

	_, err = repo.FindByProviderOrderIDForBuyer(ctx, "order_scoped", other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_SellerTotals(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewOrderRepository(db)

	seller := testutil.CreateUser(t, db, "seller")
	buyer := testutil.CreateUser(t, db, "buyer")
	snippet := testutil.CreateSnippet(t, db, seller, "100")

	o1 := newOrder(t, db, repo, buyer, seller, snippet, "order_a")
	newOrder(t, db, repo, buyer, seller, snippet, "order_b")
	_, err := repo.MarkPaid(ctx, db, o1.ID, "pay_a")
	require.NoError(t, err)

	count, earnings, err := repo.SellerTotals(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, decimal.NewFromInt(100).Equal(earnings), "got %s", earnings)

	recent, err := repo.ListPaidBySeller(ctx, seller.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, o1.ID, recent[0].ID)
}

func TestSnippetRepository_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewSnippetRepository(db)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	free := testutil.CreateSnippet(t, db, alice, "0")
	cheap := testutil.CreateSnippet(t, db, alice, "49")
	pricey := testutil.CreateSnippet(t, db, bob, "299")
	pricey.Language = "go"
	pricey.Title = "Worker pool"
	pricey.Downloads = 7
	require.NoError(t, repo.Update(ctx, pricey, "language", "title", "downloads"))

	all, total, err := repo.List(ctx, &dto.SnippetFilter{Page: dto.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, s := range all {
		assert.Empty(t, s.Code, "listings never carry code")
	}

	isFree := true
	got, _, err := repo.List(ctx, &dto.SnippetFilter{Free: &isFree, Page: dto.NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, free.ID, got[0].ID)

	minPrice := decimal.NewFromInt(40)
	maxPrice := decimal.NewFromInt(100)
	got, _, err = repo.List(ctx, &dto.SnippetFilter{MinPrice: &minPrice, MaxPrice: &maxPrice, Page: dto.NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, cheap.ID, got[0].ID)

	got, _, err = repo.List(ctx, &dto.SnippetFilter{Query: "WORKER", Page: dto.NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pricey.ID, got[0].ID)

	got, _, err = repo.List(ctx, &dto.SnippetFilter{Language: "Go", Page: dto.NewPage(1, 10)})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, _, err = repo.List(ctx, &dto.SnippetFilter{Tag: "demo", AuthorID: alice.ID, Page: dto.NewPage(1, 10)})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, _, err = repo.List(ctx, &dto.SnippetFilter{Sort: "popular", Page: dto.NewPage(1, 1)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pricey.ID, got[0].ID)
}

func TestSnippetRepository_CountersAndSuggestions(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewSnippetRepository(db)

	alice := testutil.CreateUser(t, db, "alice")
	s := testutil.CreateSnippet(t, db, alice, "5")

	require.NoError(t, repo.IncrementDownloads(ctx, db, s.ID))
	require.NoError(t, repo.IncrementDownloads(ctx, db, s.ID))

	stored, err := repo.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Downloads)
	assert.Equal(t, []string{"demo"}, stored.Tags)

	suggestions, err := repo.Suggest(ctx, "snip", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Snippet by alice"}, suggestions)

	suggestions, err = repo.Suggest(ctx, "java", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript"}, suggestions)

	counts, err := repo.CountByLanguage(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(1), counts[0].Count)
}

func TestUserRepository_ExistsAndCounters(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	alice := testutil.CreateUser(t, db, "alice")

	usernameTaken, emailTaken, err := repo.ExistsByUsernameOrEmail(ctx, "alice", "someone@example.com")
	require.NoError(t, err)
	assert.True(t, usernameTaken)
	assert.False(t, emailTaken)

	usernameTaken, emailTaken, err = repo.ExistsByUsernameOrEmail(ctx, "carol", "ALICE@example.com")
	require.NoError(t, err)
	assert.False(t, usernameTaken)
	assert.True(t, emailTaken)

	require.NoError(t, repo.IncrementSnippets(ctx, db, alice.ID, 1))
	require.NoError(t, repo.IncrementDownloads(ctx, db, alice.ID))

	stored, err := repo.FindByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.TotalSnippets)
	assert.Equal(t, int64(1), stored.TotalDownloads)

	err = repo.Update(ctx, "missing", map[string]interface{}{"bio": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
