package board

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Notion property names of the request database.
const (
	PropItem    = "품목명"
	PropVendor  = "농가명"
	PropUrgency = "긴급도"
	PropContent = "내용"
)

const (
	UrgencyNormal   = "보통"
	UrgencyHigh     = "긴급"
	UrgencyCritical = "매우 긴급"
)

var Urgencies = []string{UrgencyNormal, UrgencyHigh, UrgencyCritical}

var ErrInvalidRequest = eris.New("board: invalid request")

// Request is one staff request posted from the shop floor.
type Request struct {
	ID         string
	ItemName   string
	VendorName string
	Urgency    string
	Content    string
	CreatedAt  time.Time
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.ItemName) == "" {
		return eris.Wrap(ErrInvalidRequest, "item name is required")
	}
	if !slices.Contains(Urgencies, r.Urgency) {
		return eris.Wrapf(ErrInvalidRequest, "urgency %q is not one of %v", r.Urgency, Urgencies)
	}
	return nil
}

type Board struct {
	client Client
	dbID   string
}

func New(client Client, dbID string) *Board {
	return &Board{client: client, dbID: dbID}
}

const maxPageSize = 100

// List returns up to limit requests, newest first. limit <= 0 reads every page.
func (b *Board) List(ctx context.Context, limit int) ([]Request, error) {
	req := &notionapi.DatabaseQueryRequest{
		Sorts: []notionapi.SortObject{
			{Timestamp: notionapi.TimestampCreated, Direction: notionapi.SortOrderDESC},
		},
		PageSize: maxPageSize,
	}
	if limit > 0 && limit < maxPageSize {
		req.PageSize = limit
	}

	var out []Request
	for {
		resp, err := b.client.QueryDatabase(ctx, b.dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "board: list requests")
		}
		for _, p := range resp.Results {
			out = append(out, parseRequestPage(p))
			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return out, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func (b *Board) Add(ctx context.Context, r Request) (Request, error) {
	r.ItemName = strings.TrimSpace(r.ItemName)
	r.VendorName = strings.TrimSpace(r.VendorName)
	if r.Urgency == "" {
		r.Urgency = UrgencyNormal
	}
	if err := r.Validate(); err != nil {
		return Request{}, err
	}

	page, err := b.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(b.dbID),
		},
		Properties: notionapi.Properties{
			PropItem: notionapi.TitleProperty{
				Type:  notionapi.PropertyTypeTitle,
				Title: richText(r.ItemName),
			},
			PropVendor: notionapi.RichTextProperty{
				Type:     notionapi.PropertyTypeRichText,
				RichText: richText(r.VendorName),
			},
			PropUrgency: notionapi.SelectProperty{
				Type:   notionapi.PropertyTypeSelect,
				Select: notionapi.Option{Name: r.Urgency},
			},
			PropContent: notionapi.RichTextProperty{
				Type:     notionapi.PropertyTypeRichText,
				RichText: richText(r.Content),
			},
		},
	})
	if err != nil {
		return Request{}, eris.Wrap(err, "board: add request")
	}

	r.ID = string(page.ID)
	r.CreatedAt = page.CreatedTime
	zap.L().Info("request posted", zap.String("item", r.ItemName), zap.String("urgency", r.Urgency))
	return r, nil
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}}
}

func parseRequestPage(p notionapi.Page) Request {
	r := Request{ID: string(p.ID), CreatedAt: p.CreatedTime}
	if tp, ok := p.Properties[PropItem].(*notionapi.TitleProperty); ok {
		r.ItemName = plainText(tp.Title)
	}
	if rtp, ok := p.Properties[PropVendor].(*notionapi.RichTextProperty); ok {
		r.VendorName = plainText(rtp.RichText)
	}
	if sp, ok := p.Properties[PropUrgency].(*notionapi.SelectProperty); ok {
		r.Urgency = sp.Select.Name
	}
	if rtp, ok := p.Properties[PropContent].(*notionapi.RichTextProperty); ok {
		r.Content = plainText(rtp.RichText)
	}
	return r
}

func plainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}
