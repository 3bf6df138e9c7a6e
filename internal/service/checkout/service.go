// Package checkout sequences the contact, address and payment steps of one
// browser's checkout and commits address changes to the backend.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"sync"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/service/address"
)

type addressStore interface {
	List(ctx context.Context, owner address.Owner) ([]domain.CustomerAddress, error)
	Create(ctx context.Context, owner address.Owner, pair domain.CustomerAddress) (*domain.CustomerAddress, error)
	UpdateBilling(ctx context.Context, owner address.Owner, billing domain.BillingAddress) (*domain.CustomerAddress, error)
	UpdateShipping(ctx context.Context, owner address.Owner, shipping domain.ShippingAddress) (*domain.CustomerAddress, error)
	Delete(ctx context.Context, owner address.Owner, pair domain.CustomerAddress) error
}

type stateRepo interface {
	Get(ctx context.Context, tenantID, sessionID string) ([]byte, error)
	Save(ctx context.Context, tenantID, sessionID string, state []byte) error
	Delete(ctx context.Context, tenantID, sessionID string) error
}

type Service struct {
	addresses addressStore
	repo      stateRepo
	logger    *log.Logger
}

func New(addresses addressStore, repo stateRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{addresses: addresses, repo: repo, logger: logger}
}

// Load returns the stored checkout of a session, or a fresh one.
func (s *Service) Load(ctx context.Context, tenantID, sessionID, lang string) (*State, error) {
	raw, err := s.repo.Get(ctx, tenantID, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return NewState(lang), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout: %w", err)
	}
	st := &State{}
	if err := json.Unmarshal(raw, st); err != nil {
		s.logger.Printf("checkout: discard unreadable state session=%s err=%v", sessionID, err)
		return NewState(lang), nil
	}
	if !st.ActiveStep.Valid() {
		st.OpenStep(StepContact)
	}
	if st.Open == nil {
		st.Open = map[Step]bool{}
	}
	if lang != "" {
		st.Lang = lang
	}
	return st, nil
}

// Persist stores st for the session.
func (s *Service) Persist(ctx context.Context, tenantID, sessionID string, st *State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode checkout: %w", err)
	}
	if err := s.repo.Save(ctx, tenantID, sessionID, raw); err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	return nil
}

// Discard removes the in-progress checkout of a session.
func (s *Service) Discard(ctx context.Context, tenantID, sessionID string) error {
	if err := s.repo.Delete(ctx, tenantID, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete checkout: %w", err)
	}
	return nil
}

// Refresh re-reads the address book. When nothing is assigned yet the main
// pair, or else the first one, is picked.
func (s *Service) Refresh(ctx context.Context, owner address.Owner, st *State) error {
	records, err := s.addresses.List(ctx, owner)
	if err != nil {
		return err
	}
	st.Addresses = records
	if _, ok := st.AssignedAddress(); !ok {
		st.AssignedAddressID = 0
	}
	if st.AssignedAddressID == 0 && !st.Editing && len(records) > 0 {
		pick := records[0]
		for _, rec := range records {
			if rec.Main {
				pick = rec
				break
			}
		}
		st.AssignedAddressID = pick.ID
		st.Selection = domain.Existing(pick.ID)
		st.loadDrafts(pick)
	}
	if len(records) == 0 && !st.Selection.IsNew() {
		st.Selection = domain.AddNew()
		st.Editing = true
		st.resetDrafts()
	}
	return nil
}

// SaveAddress commits the address step. Picking a saved pair just assigns it;
// a new pair is created; an edited pair only sends the halves that changed,
// in parallel when both did. On success the list is re-read, the resulting
// pair assigned and the payment step opened. Partial updates are not rolled
// back.
func (s *Service) SaveAddress(ctx context.Context, owner address.Owner, st *State, fields domain.FieldConfig) error {
	form := st.form(fields)
	if !form.Composing() {
		if _, ok := st.find(st.AssignedAddressID); !ok {
			return domain.ErrNotFound
		}
		st.CloseActive()
		return nil
	}

	if invalid := st.AddressErrors(fields); len(invalid) > 0 {
		return &domain.ValidationError{Form: "address", Fields: invalid}
	}
	if owner.CustomerID <= 0 {
		return domain.ErrMissingCustomer
	}

	var (
		resultID int64
		err      error
	)
	if id, existing := st.Selection.ID(); existing {
		resultID, err = s.saveEdited(ctx, owner, st, id)
	} else {
		resultID, err = s.saveNew(ctx, owner, st)
	}
	if err != nil {
		st.OpenStep(StepAddress)
		var partial *domain.PartialUpdateError
		if errors.As(err, &partial) {
			if rerr := s.Refresh(ctx, owner, st); rerr != nil {
				s.logger.Printf("checkout: refresh after partial update customer=%d err=%v", owner.CustomerID, rerr)
			}
		}
		return err
	}

	if err := s.Refresh(ctx, owner, st); err != nil {
		return fmt.Errorf("refresh addresses: %w", err)
	}
	rec, ok := st.find(resultID)
	if !ok && len(st.Addresses) > 0 {
		rec, ok = st.Addresses[0], true
	}
	st.Editing = false
	if ok {
		st.AssignedAddressID = rec.ID
		st.Selection = domain.Existing(rec.ID)
		st.loadDrafts(rec)
	}
	st.CloseActive()
	return nil
}

func (s *Service) saveNew(ctx context.Context, owner address.Owner, st *State) (int64, error) {
	pair := domain.CustomerAddress{
		BillingType:     st.BillingType,
		BillingAddress:  st.Billing,
		ShippingAddress: st.EffectiveShipping(),
		Main:            len(st.Addresses) == 0,
	}
	created, err := s.addresses.Create(ctx, owner, pair)
	if err != nil {
		s.logger.Printf("checkout: create address customer=%d err=%v", owner.CustomerID, err)
		return 0, err
	}
	if created == nil {
		return 0, nil
	}
	return created.ID, nil
}

// saveEdited diffs the drafts against the stored pair and returns the id of
// the pair to assign afterwards.
func (s *Service) saveEdited(ctx context.Context, owner address.Owner, st *State, id int64) (int64, error) {
	orig, ok := st.find(id)
	if !ok {
		return 0, domain.ErrNotFound
	}
	billing := st.Billing
	billing.ID = orig.BillingAddress.ID
	billing.Edited = orig.BillingAddress.Edited
	shipping := st.EffectiveShipping()
	shipping.ID = orig.ShippingAddress.ID
	shipping.Edited = orig.ShippingAddress.Edited

	billingChanged := !reflect.DeepEqual(billing, orig.BillingAddress)
	shippingChanged := !reflect.DeepEqual(shipping, orig.ShippingAddress)
	if !billingChanged && !shippingChanged {
		return orig.ID, nil
	}

	// Both halves run to completion so a partial result is known.
	var (
		wg                      sync.WaitGroup
		billingErr, shippingErr error
		billingRes, shippingRes *domain.CustomerAddress
	)
	if billingChanged {
		wg.Go(func() {
			billingRes, billingErr = s.addresses.UpdateBilling(ctx, owner, billing)
		})
	}
	if shippingChanged {
		wg.Go(func() {
			shippingRes, shippingErr = s.addresses.UpdateShipping(ctx, owner, shipping)
		})
	}
	wg.Wait()

	switch {
	case billingErr != nil && shippingErr != nil:
		s.logger.Printf("checkout: update address=%d customer=%d billing_err=%v shipping_err=%v", id, owner.CustomerID, billingErr, shippingErr)
		return 0, errors.Join(billingErr, shippingErr)
	case billingErr != nil:
		s.logger.Printf("checkout: update billing address=%d customer=%d err=%v", id, owner.CustomerID, billingErr)
		if shippingChanged {
			return 0, &domain.PartialUpdateError{ShippingUpdated: true, Err: billingErr}
		}
		return 0, billingErr
	case shippingErr != nil:
		s.logger.Printf("checkout: update shipping address=%d customer=%d err=%v", id, owner.CustomerID, shippingErr)
		if billingChanged {
			return 0, &domain.PartialUpdateError{BillingUpdated: true, Err: shippingErr}
		}
		return 0, shippingErr
	}

	switch {
	case billingRes != nil && billingRes.ID > 0:
		return billingRes.ID, nil
	case shippingRes != nil && shippingRes.ID > 0:
		return shippingRes.ID, nil
	}
	return orig.ID, nil
}

// RequestDelete asks for confirmation before removing a saved pair.
func (st *State) RequestDelete(id int64) error {
	if _, ok := st.find(id); !ok {
		return domain.ErrNotFound
	}
	st.PendingDelete = id
	return nil
}

// CancelDelete forgets the pending delete.
func (st *State) CancelDelete() {
	st.PendingDelete = 0
}

// ConfirmDelete removes the pending pair. If it was the assigned one, the
// first remaining pair takes its place, or the new-address form when none is
// left. A failed delete leaves the list as it was.
func (s *Service) ConfirmDelete(ctx context.Context, owner address.Owner, st *State) error {
	pair, ok := st.find(st.PendingDelete)
	if !ok {
		st.PendingDelete = 0
		return domain.ErrNotFound
	}
	if err := s.addresses.Delete(ctx, owner, pair); err != nil {
		return err
	}
	st.PendingDelete = 0

	wasAssigned := st.AssignedAddressID == pair.ID
	selected, _ := st.Selection.ID()
	affected := wasAssigned || selected == pair.ID
	if affected {
		st.Editing = false
		if wasAssigned {
			st.AssignedAddressID = 0
		}
	}
	if err := s.Refresh(ctx, owner, st); err != nil {
		s.logger.Printf("checkout: refresh after delete customer=%d err=%v", owner.CustomerID, err)
		st.Addresses = removeAddress(st.Addresses, pair.ID)
	}
	if wasAssigned {
		st.AssignedAddressID = 0
		if len(st.Addresses) > 0 {
			st.AssignedAddressID = st.Addresses[0].ID
		}
	}
	if affected {
		st.CancelEdit()
	}
	return nil
}

func removeAddress(records []domain.CustomerAddress, id int64) []domain.CustomerAddress {
	out := make([]domain.CustomerAddress, 0, len(records))
	for _, rec := range records {
		if rec.ID != id {
			out = append(out, rec)
		}
	}
	return out
}
