package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/punchamoorthee/storeops/internal/domain"
)

var customerColumns = []string{"ID", "NAME", "E-MAIL", "PHONE", "CREATED", "UPDATED"}

const (
	customerDateLayout = "2006-01-02"
	firstCustomerID    = 200
)

// customerRow is one line of the file. The date cells are kept as read so a
// rewrite returns them unchanged, whatever format they are in.
type customerRow struct {
	domain.Customer
	created string
	updated string
}

func (r customerRow) record() []string {
	created, updated := r.created, r.updated
	if created == "" {
		created = formatDate(r.Created)
	}
	if updated == "" {
		updated = formatDate(r.Updated)
	}
	return []string{r.ID, r.Name, r.Email, r.Phone, created, updated}
}

// CustomerDirectory keeps the customer roster in a CSV file.
type CustomerDirectory struct {
	path  string
	guard *fileGuard
	now   func() time.Time
}

func NewCustomerDirectory(path string) *CustomerDirectory {
	return &CustomerDirectory{path: path, guard: newFileGuard(path), now: time.Now}
}

func (d *CustomerDirectory) List(ctx context.Context) ([]domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []customerRow
	err := d.guard.withRead(func() error {
		var err error
		rows, err = d.load()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read customers: %w", err)
	}
	customers := make([]domain.Customer, 0, len(rows))
	for _, r := range rows {
		customers = append(customers, r.Customer)
	}
	return customers, nil
}

// FindByEmail matches case-insensitively, which is how shoppers log in.
func (d *CustomerDirectory) FindByEmail(ctx context.Context, email string) (domain.Customer, error) {
	customers, err := d.List(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	email = strings.TrimSpace(email)
	for _, c := range customers {
		if strings.EqualFold(c.Email, email) {
			return c, nil
		}
	}
	return domain.Customer{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, email)
}

func (d *CustomerDirectory) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	customers, err := d.List(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	for _, c := range customers {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Customer{}, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
}

// Register appends a customer with the next free numeric id.
func (d *CustomerDirectory) Register(ctx context.Context, name, email, phone string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, err
	}
	name, email, phone = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(phone)
	if name == "" || email == "" {
		return domain.Customer{}, fmt.Errorf("%w: name and email are required", ErrInvalidCustomer)
	}

	var created domain.Customer
	err := d.guard.withWrite(func() error {
		rows, err := d.load()
		if err != nil {
			return fmt.Errorf("read customers: %w", err)
		}
		for _, r := range rows {
			if strings.EqualFold(r.Email, email) {
				return fmt.Errorf("%w: held by customer %s", ErrDuplicateCustomer, r.ID)
			}
		}

		today := d.now().UTC().Truncate(24 * time.Hour)
		created = domain.Customer{
			ID:      nextCustomerID(rows),
			Name:    name,
			Email:   email,
			Phone:   phone,
			Created: today,
			Updated: today,
		}
		return d.save(append(rows, customerRow{Customer: created}))
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return created, nil
}

// Remove deletes every customer whose id equals identifier or whose name
// matches it case-insensitively, and returns the removed records.
func (d *CustomerDirectory) Remove(ctx context.Context, identifier string) ([]domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	identifier = strings.TrimSpace(identifier)

	var removed []domain.Customer
	err := d.guard.withWrite(func() error {
		rows, err := d.load()
		if err != nil {
			return fmt.Errorf("read customers: %w", err)
		}
		kept := rows[:0:0]
		for _, r := range rows {
			if r.ID == identifier || strings.EqualFold(r.Name, identifier) {
				removed = append(removed, r.Customer)
				continue
			}
			kept = append(kept, r)
		}
		if len(removed) == 0 {
			return fmt.Errorf("%w: %s", ErrCustomerNotFound, identifier)
		}
		return d.save(kept)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func nextCustomerID(rows []customerRow) string {
	highest := firstCustomerID
	for _, r := range rows {
		if n, err := strconv.Atoi(r.ID); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// load parses the file. Dates that are not in the 2006-01-02 layout leave
// Created or Updated zero, but their text survives in the row.
func (d *CustomerDirectory) load() ([]customerRow, error) {
	f, err := os.Open(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for _, col := range customerColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s missing column %q", ErrMalformedFile, d.path, col)
		}
	}

	var rows []customerRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(col string) string { return strings.TrimSpace(rec[idx[col]]) }
		r := customerRow{
			Customer: domain.Customer{
				ID:    get("ID"),
				Name:  get("NAME"),
				Email: get("E-MAIL"),
				Phone: get("PHONE"),
			},
			created: get("CREATED"),
			updated: get("UPDATED"),
		}
		r.Created = parseDate(r.created)
		r.Updated = parseDate(r.updated)
		rows = append(rows, r)
	}
	return rows, nil
}

func (d *CustomerDirectory) save(rows []customerRow) error {
	return writeFileAtomic(d.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(customerColumns); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(r.record()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(customerDateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(customerDateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
