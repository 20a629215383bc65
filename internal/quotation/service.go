package quotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sourcedesk/sourcedesk/internal/clients"
	"github.com/sourcedesk/sourcedesk/internal/settings"
	"github.com/sourcedesk/sourcedesk/internal/shared"
)

// SettingsProvider supplies the pricing parameter snapshot. Snapshots are
// loaded before entering a quotation transaction so no settings I/O happens
// under the row lock.
type SettingsProvider interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
}

// Service owns every mutation of the quotation aggregate. Items and derived
// totals always change together inside one locked transaction, so callers
// never observe a quotation whose items and totals are out of sync.
type Service struct {
	repo       Repository
	clientRepo clients.Repository
	settings   SettingsProvider
}

// NewService constructs a Service.
func NewService(repo Repository, clientRepo clients.Repository, settingsProvider SettingsProvider) *Service {
	return &Service{
		repo:       repo,
		clientRepo: clientRepo,
		settings:   settingsProvider,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Quotation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListQuotationsRequest) ([]QuotationWithClient, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Pricing recomputes the breakdown for display without persisting anything.
func (s *Service) Pricing(ctx context.Context, id int64) (*Breakdown, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	b := ComputePricing(*q, q.Items, snap)
	return &b, nil
}

// Create builds a new draft quotation with zero or more initial items. The
// quotation number is generated unless the caller supplies one.
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest, createdBy int64) (*Quotation, error) {
	if req.ValidFrom != nil && req.ValidUntil != nil && req.ValidUntil.Before(*req.ValidFrom) {
		return nil, fmt.Errorf("%w: valid_until must be after valid_from", shared.ErrValidation)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item quantity must be positive", shared.ErrValidation)
		}
	}

	if _, err := s.clientRepo.Get(ctx, req.ClientID); err != nil {
		return nil, fmt.Errorf("verify client: %w", err)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var quotationID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		number := ""
		if req.Number != nil && *req.Number != "" {
			number = *req.Number
		} else {
			number, err = repo.GenerateNumber(ctx, time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
		}

		q := Quotation{
			Number:          number,
			PublicID:        uuid.New(),
			ClientID:        req.ClientID,
			Status:          StatusDraft,
			Incoterm:        req.Incoterm,
			Currency:        req.Currency,
			FreightCost:     req.FreightCost,
			InsuranceCost:   req.InsuranceCost,
			OtherCosts:      req.OtherCosts,
			DiscountPercent: req.DiscountPercent,
			ValidFrom:       req.ValidFrom,
			ValidUntil:      req.ValidUntil,
			Notes:           req.Notes,
			Terms:           req.Terms,
			CreatedBy:       createdBy,
		}

		items := make([]Item, 0, len(req.Items))
		for i, input := range req.Items {
			item := itemFromInput(input)
			if item.SortOrder == 0 {
				item.SortOrder = i + 1
			}
			item.ComputeLineTotal()
			items = append(items, item)
		}

		ApplyBreakdown(&q, ComputePricing(q, items, snap))

		quotationID, err = repo.Create(ctx, q)
		if err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		for _, item := range items {
			item.QuotationID = quotationID
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, quotationID)
}

// Update changes header-level cost fields and the validity window, then
// recomputes derived totals under the row lock.
func (s *Service) Update(ctx context.Context, id int64, req UpdateQuotationRequest) (*Quotation, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if req.FreightCost != nil {
			q.FreightCost = *req.FreightCost
			updates["freight_cost"] = *req.FreightCost
		}
		if req.InsuranceCost != nil {
			q.InsuranceCost = *req.InsuranceCost
			updates["insurance_cost"] = *req.InsuranceCost
		}
		if req.OtherCosts != nil {
			q.OtherCosts = *req.OtherCosts
			updates["other_costs"] = *req.OtherCosts
		}
		if req.DiscountPercent != nil {
			q.DiscountPercent = *req.DiscountPercent
			updates["discount_percent"] = *req.DiscountPercent
		}
		if req.ValidFrom != nil {
			q.ValidFrom = req.ValidFrom
			updates["valid_from"] = *req.ValidFrom
		}
		if req.ValidUntil != nil {
			q.ValidUntil = req.ValidUntil
			updates["valid_until"] = *req.ValidUntil
		}
		if req.Notes != nil {
			q.Notes = req.Notes
			updates["notes"] = *req.Notes
		}
		if req.Terms != nil {
			q.Terms = req.Terms
			updates["terms"] = *req.Terms
		}

		if len(updates) > 0 {
			if err := repo.UpdateHeader(ctx, id, updates); err != nil {
				return err
			}
		}
		return s.recalculateLocked(ctx, repo, q, snap)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// AddItem appends a line item and synchronously recomputes the quotation's
// derived totals. Retrying with identical input creates a duplicate item by
// design; there is no implicit dedup.
func (s *Service) AddItem(ctx context.Context, quotationID int64, input ItemInput) (*Item, error) {
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var itemID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.GetForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}

		item := itemFromInput(input)
		item.QuotationID = quotationID
		if item.SortOrder == 0 {
			item.SortOrder = len(q.Items) + 1
		}
		item.ComputeLineTotal()

		itemID, err = repo.InsertItem(ctx, item)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return s.recalculateLocked(ctx, repo, q, snap)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, itemID)
}

// UpdateItem applies only the supplied fields, recomputes the line total from
// the merged state, and recomputes quotation totals before returning.
func (s *Service) UpdateItem(ctx context.Context, itemID int64, input UpdateItemInput) (*Item, error) {
	if input.Quantity != nil && *input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", shared.ErrValidation)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := repo.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		q, err := repo.GetForUpdate(ctx, item.QuotationID)
		if err != nil {
			return err
		}

		mergeItem(item, input)
		item.ComputeLineTotal()
		if err := repo.UpdateItem(ctx, *item); err != nil {
			return err
		}
		return s.recalculateLocked(ctx, repo, q, snap)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, itemID)
}

// RemoveItem detaches a line item and recomputes totals. Removal is
// idempotent: removing an already removed item succeeds and changes nothing.
func (s *Service) RemoveItem(ctx context.Context, itemID int64) error {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}

	return s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		item, err := repo.GetItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		q, err := repo.GetForUpdate(ctx, item.QuotationID)
		if err != nil {
			return err
		}

		if _, err := repo.DeleteItem(ctx, itemID); err != nil {
			return err
		}
		return s.recalculateLocked(ctx, repo, q, snap)
	})
}

// Transition applies a status change through the workflow table. Status
// changes never alter derived costs, so no recomputation happens here.
func (s *Service) Transition(ctx context.Context, id int64, to Status) (*Quotation, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		q, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := Transition(q, to); err != nil {
			return err
		}
		return repo.UpdateStatus(ctx, id, q.Status)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Clone forks a new draft quotation from an existing one: fresh identity and
// number, copied trade terms and cost fields, deep-copied items, reset
// status and validity window, freshly computed totals. All-or-nothing.
func (s *Service) Clone(ctx context.Context, sourceID int64, createdBy int64) (*Quotation, error) {
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var cloneID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		src, err := repo.Get(ctx, sourceID)
		if err != nil {
			return err
		}

		number, err := repo.GenerateNumber(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		notes := fmt.Sprintf("Cloned from %s", src.Number)
		if src.Notes != nil && *src.Notes != "" {
			notes = notes + "\n" + *src.Notes
		}

		clone := Quotation{
			Number:          number,
			PublicID:        uuid.New(),
			ClientID:        src.ClientID,
			Status:          StatusDraft,
			Incoterm:        src.Incoterm,
			Currency:        src.Currency,
			FreightCost:     src.FreightCost,
			InsuranceCost:   src.InsuranceCost,
			OtherCosts:      src.OtherCosts,
			DiscountPercent: src.DiscountPercent,
			Notes:           &notes,
			Terms:           src.Terms,
			CreatedBy:       createdBy,
		}

		items := make([]Item, 0, len(src.Items))
		for _, srcItem := range src.Items {
			item := srcItem
			item.ID = 0
			item.QuotationID = 0
			item.ComputeLineTotal()
			items = append(items, item)
		}

		ApplyBreakdown(&clone, ComputePricing(clone, items, snap))

		cloneID, err = repo.Create(ctx, clone)
		if err != nil {
			return fmt.Errorf("create clone: %w", err)
		}
		for _, item := range items {
			item.QuotationID = cloneID
			if _, err := repo.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("copy item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, cloneID)
}

// Delete removes a quotation and, through the schema's ownership cascade,
// its line items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ExpireOverdue transitions every quotation past its validity window to
// expired, always through the workflow table. Returns the number expired.
func (s *Service) ExpireOverdue(ctx context.Context, asOf time.Time) (int, error) {
	ids, err := s.repo.ListExpirable(ctx, asOf)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if _, err := s.Transition(ctx, id, StatusExpired); err != nil {
			// A concurrent transition may have won; skip and continue.
			if errors.Is(err, shared.ErrInvalidTransition) || errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// recalculateLocked recomputes derived totals from the current item set and
// persists them. Must run with the quotation row locked.
func (s *Service) recalculateLocked(ctx context.Context, repo Repository, q *Quotation, snap settings.Snapshot) error {
	items, err := repo.ListItems(ctx, q.ID)
	if err != nil {
		return err
	}
	ApplyBreakdown(q, ComputePricing(*q, items, snap))
	return repo.UpdateTotals(ctx, q.ID, q.Subtotal, q.Total, q.DiscountAmount, q.GrandTotal)
}

func itemFromInput(input ItemInput) Item {
	return Item{
		ProductID:     input.ProductID,
		ProductName:   input.ProductName,
		SKU:           input.SKU,
		Description:   input.Description,
		Quantity:      input.Quantity,
		UnitOfMeasure: input.UnitOfMeasure,
		UnitCost:      input.UnitCost,
		UnitPrice:     input.UnitPrice,
		MarkupPercent: input.MarkupPercent,
		TariffPercent: input.TariffPercent,
		TariffAmount:  input.TariffAmount,
		FreightAmount: input.FreightAmount,
		SortOrder:     input.SortOrder,
		Notes:         input.Notes,
	}
}

func mergeItem(item *Item, input UpdateItemInput) {
	if input.ProductID != nil {
		item.ProductID = input.ProductID
	}
	if input.ProductName != nil {
		item.ProductName = *input.ProductName
	}
	if input.SKU != nil {
		item.SKU = input.SKU
	}
	if input.Description != nil {
		item.Description = input.Description
	}
	if input.Quantity != nil {
		item.Quantity = *input.Quantity
	}
	if input.UnitOfMeasure != nil {
		item.UnitOfMeasure = *input.UnitOfMeasure
	}
	if input.UnitCost != nil {
		item.UnitCost = *input.UnitCost
	}
	if input.UnitPrice != nil {
		item.UnitPrice = *input.UnitPrice
	}
	if input.MarkupPercent != nil {
		item.MarkupPercent = *input.MarkupPercent
	}
	if input.TariffPercent != nil {
		item.TariffPercent = *input.TariffPercent
	}
	if input.TariffAmount != nil {
		item.TariffAmount = *input.TariffAmount
	}
	if input.FreightAmount != nil {
		item.FreightAmount = *input.FreightAmount
	}
	if input.SortOrder != nil {
		item.SortOrder = *input.SortOrder
	}
	if input.Notes != nil {
		item.Notes = input.Notes
	}
}
