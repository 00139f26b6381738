package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Message Repository ===========

type messageRepoPG struct{ pool *pgxpool.Pool }

func NewMessageRepoPG(pool *pgxpool.Pool) MessageRepository {
	return &messageRepoPG{pool: pool}
}

func (r *messageRepoPG) conn(_ context.Context) queryable { return r.pool }

const messageCols = `id, sender_id, receiver_id, text, image, created_at, read`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.CreatedAt, &m.Read)
	return &m, err
}

func (r *messageRepoPG) Create(ctx context.Context, m *Message) error {
	m.ID = uuid.New().String()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO message (id, sender_id, receiver_id, text, image, read)
		VALUES ($1,$2,$3,$4,$5,false)
		RETURNING created_at`,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.Image).Scan(&m.CreatedAt)
}

func (r *messageRepoPG) ListConversation(ctx context.Context, userID, partnerID string, limit, offset int) ([]*Message, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM message
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`,
		userID, partnerID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+messageCols+` FROM message
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC LIMIT $3 OFFSET $4`,
		userID, partnerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

func (r *messageRepoPG) MarkConversationRead(ctx context.Context, userID, partnerID string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE message SET read = true
		WHERE receiver_id = $1 AND sender_id = $2 AND read = false`,
		userID, partnerID)
	return err
}

func (r *messageRepoPG) CountUnread(ctx context.Context, userID, partnerID string) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM message
		WHERE receiver_id = $1 AND sender_id = $2 AND read = false`,
		userID, partnerID).Scan(&count)
	return count, err
}

// =========== Contact Repository ===========

type contactRepoPG struct{ pool *pgxpool.Pool }

func NewContactRepoPG(pool *pgxpool.Pool) ContactRepository {
	return &contactRepoPG{pool: pool}
}

func (r *contactRepoPG) conn(_ context.Context) queryable { return r.pool }

func (r *contactRepoPG) ListContacts(ctx context.Context, userID, search string, limit, offset int) ([]*Contact, int, error) {
	pattern := "%" + search + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM app_user u
		WHERE u.id <> $1 AND u.name ILIKE $2`,
		userID, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.id, u.name, u.role, lm.text, lm.created_at
		FROM app_user u
		LEFT JOIN LATERAL (
			SELECT m.text, m.created_at FROM message m
			WHERE (m.sender_id = u.id AND m.receiver_id = $1)
			   OR (m.sender_id = $1 AND m.receiver_id = u.id)
			ORDER BY m.created_at DESC LIMIT 1
		) lm ON true
		WHERE u.id <> $1 AND u.name ILIKE $2
		ORDER BY lm.created_at DESC NULLS LAST, u.name ASC
		LIMIT $3 OFFSET $4`,
		userID, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.LastMessage, &c.LastMessageAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &c)
	}
	return items, total, nil
}
