package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/psds-microservice/work-buddy/internal/errs"
	"github.com/psds-microservice/work-buddy/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres stores the desk in postgres through gorm.
type Postgres struct {
	db   *gorm.DB
	opts Options
}

// NewPostgres attaches to the tables as they are. Nothing is written.
func NewPostgres(db *gorm.DB, opts Options) *Postgres {
	return &Postgres{db: db, opts: opts.withDefaults(Seed{})}
}

// OpenPostgres attaches and then reseeds, so a server start always begins
// from the seed. Only the API server may call it.
func OpenPostgres(ctx context.Context, db *gorm.DB, seed Seed, opts Options) (*Postgres, error) {
	p := &Postgres{db: db, opts: opts.withDefaults(seed)}
	if err := p.Reseed(ctx, seed); err != nil {
		return nil, fmt.Errorf("reset store: %w", err)
	}
	return p, nil
}

// Reseed wipes every table and writes seed in one transaction.
func (p *Postgres) Reseed(ctx context.Context, seed Seed) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("TRUNCATE TABLE messages, requests, users").Error; err != nil {
			return err
		}
		if len(seed.Users) > 0 {
			if err := tx.Create(&seed.Users).Error; err != nil {
				return fmt.Errorf("seed users: %w", err)
			}
		}
		for i := range seed.Requests {
			r := seed.Requests[i].Clone()
			r.Position = int64(i)
			for j := range r.Messages {
				r.Messages[j].RequestID = r.ID
				r.Messages[j].Seq = j
			}
			if err := tx.Create(&r).Error; err != nil {
				return fmt.Errorf("seed request %s: %w", r.ID, err)
			}
		}
		return nil
	})
}

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("seq ASC")
}

func (p *Postgres) List(ctx context.Context) ([]model.Request, error) {
	var items []model.Request
	if err := p.db.WithContext(ctx).Preload("Messages", orderedMessages).Order("position ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (model.Request, error) {
	return p.get(p.db.WithContext(ctx), id)
}

func (p *Postgres) get(tx *gorm.DB, id string) (model.Request, error) {
	var r model.Request
	if err := tx.Preload("Messages", orderedMessages).Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Request{}, errs.ErrRequestNotFound
		}
		return model.Request{}, err
	}
	return r, nil
}

func (p *Postgres) Create(ctx context.Context, in NewRequest) (model.Request, error) {
	if err := validateNew(&in); err != nil {
		return model.Request{}, err
	}
	now := p.opts.Now()
	req := model.Request{
		ID:          p.opts.RequestIDs.NewID(),
		UserID:      in.UserID,
		Title:       in.Title,
		Description: in.Description,
		Status:      model.RequestStatusPending,
		Priority:    in.Priority,
		CreatedAt:   now,
	}
	req.Messages = []model.Message{{
		ID:        p.opts.MessageIDs.NewID(),
		RequestID: req.ID,
		Text:      in.Description,
		Sender:    model.RoleUser,
		Timestamp: now,
		Status:    model.DeliverySent,
	}}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// New requests go in front of the list.
		if err := tx.Exec("LOCK TABLE requests IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return err
		}
		var first struct{ Min *int64 }
		if err := tx.Model(&model.Request{}).Select("MIN(position) AS min").Scan(&first).Error; err != nil {
			return err
		}
		if first.Min != nil {
			req.Position = *first.Min - 1
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		return model.Request{}, err
	}
	return req, nil
}

func (p *Postgres) SetStatus(ctx context.Context, id string, status model.RequestStatus) (model.Request, error) {
	if !status.Valid() {
		return model.Request{}, errs.ErrInvalidStatus
	}
	res := p.db.WithContext(ctx).Model(&model.Request{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return model.Request{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Request{}, errs.ErrRequestNotFound
	}
	return p.Get(ctx, id)
}

func (p *Postgres) AppendMessage(ctx context.Context, id, text string, sender model.Role) (model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || !sender.Valid() {
		return model.Message{}, errs.ErrEmptyField
	}
	msg := model.Message{
		RequestID: id,
		Text:      text,
		Sender:    sender,
		Timestamp: p.opts.Now(),
		Status:    model.DeliverySent,
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r model.Request
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrRequestNotFound
			}
			return err
		}
		var count int64
		if err := tx.Model(&model.Message{}).Where("request_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		msg.ID = p.opts.MessageIDs.NewID()
		msg.Seq = int(count)
		return tx.Create(&msg).Error
	})
	if err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// MarkRead moves every message of the other role to read. Read is the last
// delivery state, so the update never moves a message backwards.
func (p *Postgres) MarkRead(ctx context.Context, id string, reader model.Role) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := p.get(tx, id); err != nil {
			return err
		}
		return tx.Model(&model.Message{}).
			Where("request_id = ? AND sender <> ?", id, reader).
			Update("status", model.DeliveryRead).Error
	})
}

func (p *Postgres) withOpenCounts(ctx context.Context, users []model.User) ([]model.User, error) {
	var rows []struct {
		UserID    string
		OpenCount int
	}
	if err := p.db.WithContext(ctx).Model(&model.Request{}).
		Select("user_id, COUNT(*) AS open_count").
		Where("status <> ?", model.RequestStatusCompleted).
		Group("user_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	open := make(map[string]int, len(rows))
	for _, r := range rows {
		open[r.UserID] = r.OpenCount
	}
	for i := range users {
		users[i].OpenRequests = open[users[i].ID]
	}
	return users, nil
}

func (p *Postgres) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := p.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return p.withOpenCounts(ctx, users)
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	if err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, err
	}
	users, err := p.withOpenCounts(ctx, []model.User{u})
	if err != nil {
		return model.User{}, err
	}
	return users[0], nil
}

func (p *Postgres) EnsureUser(ctx context.Context, email string) (model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return model.User{}, errs.ErrEmptyField
	}
	u := model.User{
		ID:         p.opts.UserIDs.NewID(),
		Email:      email,
		Name:       nameFromEmail(email),
		LastActive: p.opts.Now(),
	}
	if err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&u).Error; err != nil {
		return model.User{}, err
	}
	return p.UserByEmail(ctx, email)
}
