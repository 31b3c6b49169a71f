package persist

import (
	"context"
	"fmt"
)

// Letter is one stored piece of post with its attachments.
type Letter struct {
	ID          int
	SenderID    int
	ReceiverID  int
	Text        string
	Attachments []Attachment
}

type Attachment struct {
	ItemID int
	Amount int
}

// PostRepo stores letters between characters. The mail caps from config are
// enforced here so every caller gets the same limits.
type PostRepo struct {
	db             *DB
	maxLetters     int
	maxAttachments int
}

func NewPostRepo(db *DB, maxLetters, maxAttachments int) *PostRepo {
	return &PostRepo{db: db, maxLetters: maxLetters, maxAttachments: maxAttachments}
}

var ErrMailboxFull = fmt.Errorf("persist: mailbox full")
var ErrTooManyAttachments = fmt.Errorf("persist: too many attachments")

// StoreLetter persists a letter and its attachments atomically.
func (r *PostRepo) StoreLetter(ctx context.Context, l *Letter) (int, error) {
	if r.maxAttachments > 0 && len(l.Attachments) > r.maxAttachments {
		return 0, ErrTooManyAttachments
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if r.maxLetters > 0 {
		var count int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM post WHERE receiver_id = $1`, l.ReceiverID).Scan(&count); err != nil {
			return 0, err
		}
		if count >= r.maxLetters {
			return 0, ErrMailboxFull
		}
	}

	var id int
	if err := tx.QueryRow(ctx,
		`INSERT INTO post (sender_id, receiver_id, letter) VALUES ($1, $2, $3) RETURNING id`,
		l.SenderID, l.ReceiverID, l.Text).Scan(&id); err != nil {
		return 0, err
	}
	for _, a := range l.Attachments {
		if _, err := tx.Exec(ctx,
			`INSERT INTO post_attachments (post_id, item_id, amount) VALUES ($1, $2, $3)`,
			id, a.ItemID, a.Amount); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// GetStoredPost returns all letters waiting for a character.
func (r *PostRepo) GetStoredPost(ctx context.Context, receiverID int) ([]*Letter, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, letter FROM post WHERE receiver_id = $1 ORDER BY id`,
		receiverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var letters []*Letter
	for rows.Next() {
		l := &Letter{}
		if err := rows.Scan(&l.ID, &l.SenderID, &l.ReceiverID, &l.Text); err != nil {
			return nil, err
		}
		letters = append(letters, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, l := range letters {
		arows, err := r.db.Pool.Query(ctx,
			`SELECT item_id, amount FROM post_attachments WHERE post_id = $1`, l.ID)
		if err != nil {
			return nil, err
		}
		for arows.Next() {
			var a Attachment
			if err := arows.Scan(&a.ItemID, &a.Amount); err != nil {
				arows.Close()
				return nil, err
			}
			l.Attachments = append(l.Attachments, a)
		}
		arows.Close()
		if err := arows.Err(); err != nil {
			return nil, err
		}
	}
	return letters, nil
}

// DeletePost removes a letter and its attachments.
func (r *PostRepo) DeletePost(ctx context.Context, id int) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM post WHERE id = $1`, id)
	return err
}
