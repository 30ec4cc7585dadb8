package core

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"LiveCS/entity"
)

// Resolution is what the widget receives on a successful identity lookup: the
// customer, their retained rooms (newest first, messages prefetched oldest
// first) and the room the session should attach to.
type Resolution struct {
	Customer   *entity.Customer  `json:"customer"`
	Rooms      []entity.ChatRoom `json:"rooms"`
	ActiveRoom *entity.ChatRoom  `json:"active_room"`
}

// Resolve maps an inbound visitor to a customer within the domain's retention
// window. When no usable customer exists it either silently mints one from
// tenant+IP (domains with ip_identification) or signals ErrProfileRequired so
// the widget collects the profile form first.
func (c *Core) Resolve(ctx context.Context, domainID, sourceIP string) (*Resolution, error) {
	if _, err := netip.ParseAddr(sourceIP); err != nil {
		return nil, fmt.Errorf("%w: malformed ip %q", entity.ErrInvalidInput, sourceIP)
	}

	domain, err := c.repo.GetDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	cutoff := c.cutoffFor(domain)

	customer, err := c.repo.FindCustomerByIP(ctx, domainID, sourceIP, cutoff)
	if err != nil {
		if !errors.Is(err, entity.ErrCustomerNotFound) {
			return nil, err
		}
		if !domain.IPIdentification {
			return nil, entity.ErrProfileRequired
		}
		return c.createCustomer(ctx, domain, sourceIP, entity.Profile{})
	}

	if domain.RequireProfile && customer.Name == "" && customer.Email == "" {
		return nil, entity.ErrProfileRequired
	}

	return c.attach(ctx, customer, cutoff)
}

// SubmitProfile handles the widget's profile form. An existing customer within
// the window is enriched; otherwise the customer and their first room are
// created atomically.
func (c *Core) SubmitProfile(ctx context.Context, domainID, sourceIP string, profile entity.Profile) (*Resolution, error) {
	if _, err := netip.ParseAddr(sourceIP); err != nil {
		return nil, fmt.Errorf("%w: malformed ip %q", entity.ErrInvalidInput, sourceIP)
	}

	domain, err := c.repo.GetDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	cutoff := c.cutoffFor(domain)

	customer, err := c.repo.FindCustomerByIP(ctx, domainID, sourceIP, cutoff)
	if err != nil {
		if !errors.Is(err, entity.ErrCustomerNotFound) {
			return nil, err
		}
		return c.createCustomer(ctx, domain, sourceIP, profile)
	}

	if err := c.repo.UpdateCustomerProfile(ctx, customer.UUID, profile); err != nil {
		return nil, err
	}
	customer, err = c.repo.GetCustomer(ctx, customer.UUID)
	if err != nil {
		return nil, err
	}

	return c.attach(ctx, customer, cutoff)
}

func (c *Core) createCustomer(ctx context.Context, domain *entity.Domain, sourceIP string, profile entity.Profile) (*Resolution, error) {
	customer := entity.NewCustomer(domain.ID, sourceIP, profile)
	room := entity.NewChatRoom(customer.UUID, domain.ID)

	if err := c.repo.CreateCustomerWithRoom(ctx, customer, room); err != nil {
		return nil, err
	}

	return &Resolution{
		Customer:   customer,
		Rooms:      []entity.ChatRoom{*room},
		ActiveRoom: room,
	}, nil
}

// attach loads the customer's retained rooms and picks the active one: the
// most recent room is reused unless it has been idle longer than the
// inactivity gap, in which case a fresh room marks the new visit.
func (c *Core) attach(ctx context.Context, customer *entity.Customer, cutoff time.Time) (*Resolution, error) {
	rooms, err := c.repo.ListRoomsForCustomer(ctx, customer.UUID, cutoff)
	if err != nil {
		return nil, err
	}

	if len(rooms) > 0 && !rooms[0].IdleSince(time.Now(), c.inactivityGap) {
		return &Resolution{
			Customer:   customer,
			Rooms:      rooms,
			ActiveRoom: &rooms[0],
		}, nil
	}

	room := entity.NewChatRoom(customer.UUID, customer.DomainID)
	if err := c.repo.CreateRoom(ctx, room); err != nil {
		return nil, err
	}
	rooms = append([]entity.ChatRoom{*room}, rooms...)

	return &Resolution{
		Customer:   customer,
		Rooms:      rooms,
		ActiveRoom: room,
	}, nil
}
