package board

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *mockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func requestPage(id, item, urgency string, created time.Time) notionapi.Page {
	return notionapi.Page{
		ID:          notionapi.ObjectID(id),
		CreatedTime: created,
		Properties: notionapi.Properties{
			PropItem:    &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: item}}},
			PropVendor:  &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "고삼"}, {PlainText: "농협"}}},
			PropUrgency: &notionapi.SelectProperty{Select: notionapi.Option{Name: urgency}},
			PropContent: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "오후 입고 필요"}}},
		},
	}
}

func TestListPaginatesNewestFirst(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()
	now := time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC)

	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "" && len(req.Sorts) == 1 && req.Sorts[0].Direction == notionapi.SortOrderDESC
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{requestPage("p1", "딸기", UrgencyHigh, now)},
		HasMore:    true,
		NextCursor: "c2",
	}, nil).Once()
	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.StartCursor == "c2"
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{requestPage("p2", "상추", UrgencyNormal, now.Add(-time.Hour))},
	}, nil).Once()

	got, err := New(mc, "db").List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "딸기", got[0].ItemName)
	assert.Equal(t, "고삼농협", got[0].VendorName)
	assert.Equal(t, UrgencyHigh, got[0].Urgency)
	assert.Equal(t, "오후 입고 필요", got[0].Content)
	assert.Equal(t, now, got[0].CreatedAt)
	assert.Equal(t, "p2", got[1].ID)
	mc.AssertExpectations(t)
}

func TestListStopsAtLimit(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()
	now := time.Now()

	mc.On("QueryDatabase", ctx, "db", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		return req.PageSize == 1
	})).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{requestPage("p1", "딸기", UrgencyNormal, now)},
		HasMore:    true,
		NextCursor: "c2",
	}, nil).Once()

	got, err := New(mc, "db").List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	mc.AssertExpectations(t)
}

func TestListError(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()
	mc.On("QueryDatabase", ctx, "db", mock.Anything).Return(nil, assert.AnError)

	_, err := New(mc, "db").List(ctx, 5)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAddBuildsProperties(t *testing.T) {
	mc := new(mockClient)
	ctx := context.Background()
	created := time.Date(2026, 2, 8, 10, 0, 0, 0, time.UTC)

	mc.On("CreatePage", ctx, mock.MatchedBy(func(req *notionapi.PageCreateRequest) bool {
		title, ok := req.Properties[PropItem].(notionapi.TitleProperty)
		if !ok || title.Title[0].Text.Content != "딸기" {
			return false
		}
		sel, ok := req.Properties[PropUrgency].(notionapi.SelectProperty)
		return ok && sel.Select.Name == UrgencyNormal && req.Parent.DatabaseID == "db"
	})).Return(&notionapi.Page{ID: "new", CreatedTime: created}, nil).Once()

	got, err := New(mc, "db").Add(ctx, Request{ItemName: " 딸기 ", VendorName: "고삼농협"})
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)
	assert.Equal(t, "딸기", got.ItemName)
	assert.Equal(t, UrgencyNormal, got.Urgency)
	assert.Equal(t, created, got.CreatedAt)
	mc.AssertExpectations(t)
}

func TestAddRejectsInvalid(t *testing.T) {
	mc := new(mockClient)
	b := New(mc, "db")

	_, err := b.Add(context.Background(), Request{ItemName: "딸기", Urgency: "급함"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = b.Add(context.Background(), Request{ItemName: "  ", Urgency: UrgencyHigh})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	mc.AssertNotCalled(t, "CreatePage", mock.Anything, mock.Anything)
}
