package order

import (
	"marketdash/internal/models"
)

// edges holds every permitted status transition. Anything not listed is
// rejected with ErrInvalidTransition, including re-applying the current
// status: transitions represent physical-world events and are deliberately
// not idempotent.
var edges = map[string][]string{
	models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
	models.StatusProcessing: {models.StatusPickedUp, models.StatusCancelled},
	models.StatusPickedUp:   {models.StatusInTransit, models.StatusCancelled},
	models.StatusInTransit:  {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered:  nil,
	models.StatusCancelled:  nil,
	models.StatusReturned:   nil,
}

// canTransition reports whether from → to is an edge of the state machine.
func canTransition(from, to string) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// authorizeTransition enforces the per-edge actor rules:
//   - forward edges out of pending belong to the store manager owning the
//     order's store;
//   - forward edges out of processing/picked_up/in_transit belong to the
//     order's assigned delivery person;
//   - cancellation belongs to an admin or the owning store manager.
//
// Customers never call the transition operation directly; their only path to
// cancellation is through a manager or admin.
func authorizeTransition(actor models.Actor, o *models.Order, store *models.Store, to string) error {
	if to == models.StatusCancelled {
		if actor.Role == models.RoleAdmin {
			return nil
		}
		if actor.Role == models.RoleStoreManager && store.ManagerID == actor.UserID {
			return nil
		}
		return models.ErrForbidden
	}

	switch to {
	case models.StatusProcessing:
		if actor.Role == models.RoleStoreManager && store.ManagerID == actor.UserID {
			return nil
		}
	case models.StatusPickedUp, models.StatusInTransit, models.StatusDelivered:
		if actor.Role == models.RoleDelivery && o.DeliveryPersonID != nil && *o.DeliveryPersonID == actor.UserID {
			return nil
		}
	}
	return models.ErrForbidden
}

// canReadOrder is the read side of the access gate: the owning customer, an
// admin, the manager of the fulfilling store, or the assigned delivery person.
func canReadOrder(actor models.Actor, o *models.Order, store *models.Store) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleCustomer:
		return o.CustomerID == actor.UserID
	case models.RoleStoreManager:
		return store != nil && store.ManagerID == actor.UserID
	case models.RoleDelivery:
		return o.DeliveryPersonID != nil && *o.DeliveryPersonID == actor.UserID
	}
	return false
}
