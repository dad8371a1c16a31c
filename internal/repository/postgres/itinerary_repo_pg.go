package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/tour_catalog_BackEnd/internal/domain"
	"github.com/njprem/tour_catalog_BackEnd/internal/repository/ports"
)

const itemColumns = `
	id, entity_type, entity_id, day_number, date, title, description, location,
	latitude, longitude, accommodation_notes, created_at, updated_at
`

const activityColumns = `
	id, itinerary_item_id, to_char("time", 'HH24:MI') AS "time", activity_title,
	activity_description, location, attraction_id, duration_hours, is_meal,
	meal_type, order_index, created_at, updated_at
`

type linkTable struct {
	kind   domain.LinkKind
	table  string
	column string
}

var linkTables = []linkTable{
	{kind: domain.LinkKindHotel, table: "itinerary_item_hotel", column: "hotel_id"},
	{kind: domain.LinkKindAttraction, table: "itinerary_item_attraction", column: "attraction_id"},
	{kind: domain.LinkKindActivity, table: "itinerary_item_activity", column: "activity_id"},
}

type ItineraryRepository struct {
	db *sqlx.DB
}

func NewItineraryRepo(db *sqlx.DB) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

func (r *ItineraryRepository) ListItems(ctx context.Context, ref domain.EntityRef) ([]domain.ItineraryItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM itinerary_item
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY day_number ASC, created_at ASC
	`
	items := make([]domain.ItineraryItem, 0)
	if err := r.db.SelectContext(ctx, &items, query, string(ref.Type), ref.ID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ItineraryRepository) FindItem(ctx context.Context, id uuid.UUID) (*domain.ItineraryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM itinerary_item WHERE id = $1`
	var item domain.ItineraryItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItineraryRepository) CreateItem(ctx context.Context, item *domain.ItineraryItem) (*domain.ItineraryItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO itinerary_item (
			entity_type, entity_id, day_number, date, title, description,
			location, latitude, longitude, accommodation_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + itemColumns

	var created domain.ItineraryItem
	err = tx.GetContext(ctx, &created, query,
		string(item.EntityType),
		item.EntityID,
		item.DayNumber,
		nullDate(item.Date),
		strings.TrimSpace(item.Title),
		nullString(item.Description),
		nullString(item.Location),
		nullFloat(item.Latitude),
		nullFloat(item.Longitude),
		nullString(item.AccommodationNotes),
	)
	if err != nil {
		return nil, err
	}

	links := domain.AssociationReplacement{
		HotelIDs:          &item.HotelIDs,
		AttractionIDs:     &item.AttractionIDs,
		LinkedActivityIDs: &item.LinkedActivityIDs,
	}
	if err := replaceLinks(ctx, tx, created.ID, links); err != nil {
		return nil, err
	}

	for i := range item.Activities {
		activity := item.Activities[i]
		activity.ItineraryItemID = created.ID
		if _, err := insertActivity(ctx, tx, &activity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	links.ReplaceAssociations(&created)
	return &created, nil
}

func (r *ItineraryRepository) UpdateItem(ctx context.Context, id uuid.UUID, fields domain.ItineraryItemFields, links domain.AssociationReplacement) (*domain.ItineraryItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	setParts := []string{"updated_at = NOW()"}
	args := []any{}
	idx := 1

	if fields.DayNumber != nil {
		setParts = append(setParts, fmt.Sprintf("day_number = $%d", idx))
		args = append(args, *fields.DayNumber)
		idx++
	}
	if fields.Date != nil {
		setParts = append(setParts, fmt.Sprintf("date = $%d", idx))
		args = append(args, nullDate(fields.Date))
		idx++
	}
	if fields.Title != nil {
		setParts = append(setParts, fmt.Sprintf("title = $%d", idx))
		args = append(args, strings.TrimSpace(*fields.Title))
		idx++
	}
	if fields.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", idx))
		args = append(args, nullString(fields.Description))
		idx++
	}
	if fields.Location != nil {
		setParts = append(setParts, fmt.Sprintf("location = $%d", idx))
		args = append(args, nullString(fields.Location))
		idx++
	}
	if fields.Latitude != nil {
		setParts = append(setParts, fmt.Sprintf("latitude = $%d", idx))
		args = append(args, nullFloat(fields.Latitude))
		idx++
	}
	if fields.Longitude != nil {
		setParts = append(setParts, fmt.Sprintf("longitude = $%d", idx))
		args = append(args, nullFloat(fields.Longitude))
		idx++
	}
	if fields.AccommodationNotes != nil {
		setParts = append(setParts, fmt.Sprintf("accommodation_notes = $%d", idx))
		args = append(args, nullString(fields.AccommodationNotes))
		idx++
	}

	query := fmt.Sprintf(`
		UPDATE itinerary_item
		SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setParts, ", "), idx, itemColumns)
	args = append(args, id)

	var updated domain.ItineraryItem
	if err := tx.GetContext(ctx, &updated, query, args...); err != nil {
		return nil, err
	}
	if err := replaceLinks(ctx, tx, id, links); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *ItineraryRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM itinerary_item WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ItineraryRepository) ListLinks(ctx context.Context, itemIDs []uuid.UUID) ([]domain.ItineraryLink, error) {
	links := make([]domain.ItineraryLink, 0)
	if len(itemIDs) == 0 {
		return links, nil
	}

	selects := make([]string, 0, len(linkTables))
	for _, lt := range linkTables {
		selects = append(selects, fmt.Sprintf(
			`SELECT itinerary_item_id, '%s' AS kind, %s AS target_id, sort_order FROM %s WHERE itinerary_item_id = ANY($1::uuid[])`,
			lt.kind, lt.column, lt.table,
		))
	}
	query := `
		SELECT itinerary_item_id, kind, target_id
		FROM (` + strings.Join(selects, "\n\t\tUNION ALL\n\t\t") + `) AS links
		ORDER BY itinerary_item_id, kind, sort_order
	`
	if err := r.db.SelectContext(ctx, &links, query, uuidArray(itemIDs)); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *ItineraryRepository) ListActivities(ctx context.Context, itemIDs []uuid.UUID) ([]domain.ItineraryActivity, error) {
	activities := make([]domain.ItineraryActivity, 0)
	if len(itemIDs) == 0 {
		return activities, nil
	}
	query := `SELECT ` + activityColumns + `
		FROM itinerary_activity
		WHERE itinerary_item_id = ANY($1::uuid[])
		ORDER BY itinerary_item_id, order_index ASC, created_at ASC
	`
	if err := r.db.SelectContext(ctx, &activities, query, uuidArray(itemIDs)); err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *ItineraryRepository) FindActivity(ctx context.Context, id uuid.UUID) (*domain.ItineraryActivity, error) {
	query := `SELECT ` + activityColumns + ` FROM itinerary_activity WHERE id = $1`
	var activity domain.ItineraryActivity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *ItineraryRepository) CreateActivity(ctx context.Context, activity *domain.ItineraryActivity) (*domain.ItineraryActivity, error) {
	return insertActivity(ctx, r.db, activity)
}

func (r *ItineraryRepository) UpdateActivity(ctx context.Context, id uuid.UUID, fields domain.ItineraryActivityFields) (*domain.ItineraryActivity, error) {
	setParts := []string{"updated_at = NOW()"}
	args := []any{}
	idx := 1

	if fields.Time != nil {
		setParts = append(setParts, fmt.Sprintf(`"time" = $%d::time`, idx))
		args = append(args, nullString(fields.Time))
		idx++
	}
	if fields.ActivityTitle != nil {
		setParts = append(setParts, fmt.Sprintf("activity_title = $%d", idx))
		args = append(args, strings.TrimSpace(*fields.ActivityTitle))
		idx++
	}
	if fields.ActivityDescription != nil {
		setParts = append(setParts, fmt.Sprintf("activity_description = $%d", idx))
		args = append(args, nullString(fields.ActivityDescription))
		idx++
	}
	if fields.Location != nil {
		setParts = append(setParts, fmt.Sprintf("location = $%d", idx))
		args = append(args, nullString(fields.Location))
		idx++
	}
	if fields.AttractionID != nil {
		setParts = append(setParts, fmt.Sprintf("attraction_id = $%d", idx))
		args = append(args, nullUUID(fields.AttractionID))
		idx++
	}
	if fields.DurationHours != nil {
		setParts = append(setParts, fmt.Sprintf("duration_hours = $%d", idx))
		args = append(args, nullFloat(fields.DurationHours))
		idx++
	}
	if fields.IsMeal != nil {
		setParts = append(setParts, fmt.Sprintf("is_meal = $%d", idx))
		args = append(args, *fields.IsMeal)
		idx++
	}
	if fields.MealType != nil {
		setParts = append(setParts, fmt.Sprintf("meal_type = $%d", idx))
		args = append(args, nullMealType(fields.MealType))
		idx++
	}
	if fields.OrderIndex != nil {
		setParts = append(setParts, fmt.Sprintf("order_index = $%d", idx))
		args = append(args, *fields.OrderIndex)
		idx++
	}

	query := fmt.Sprintf(`
		WITH updated AS (
			UPDATE itinerary_activity
			SET %s
			WHERE id = $%d
			RETURNING *
		)
		SELECT %s FROM updated
	`, strings.Join(setParts, ", "), idx, activityColumns)
	args = append(args, id)

	var activity domain.ItineraryActivity
	if err := r.db.GetContext(ctx, &activity, query, args...); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *ItineraryRepository) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM itinerary_activity WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *ItineraryRepository) SetActivityOrder(ctx context.Context, order map[uuid.UUID]int) error {
	return r.updateEach(ctx, `UPDATE itinerary_activity SET order_index = $1, updated_at = NOW() WHERE id = $2`, intArgs(order))
}

func (r *ItineraryRepository) SetDayNumbers(ctx context.Context, days map[uuid.UUID]int) error {
	return r.updateEach(ctx, `UPDATE itinerary_item SET day_number = $1, updated_at = NOW() WHERE id = $2`, intArgs(days))
}

func (r *ItineraryRepository) SetDates(ctx context.Context, dates map[uuid.UUID]time.Time) error {
	args := make(map[uuid.UUID]any, len(dates))
	for id, date := range dates {
		args[id] = date
	}
	return r.updateEach(ctx, `UPDATE itinerary_item SET date = $1::date, updated_at = NOW() WHERE id = $2`, args)
}

func (r *ItineraryRepository) updateEach(ctx context.Context, query string, values map[uuid.UUID]any) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for id, value := range values {
		if _, err := tx.ExecContext(ctx, query, value, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// replaceLinks clears and re-adds every link set present in links. Sets left
// nil are not touched.
func replaceLinks(ctx context.Context, tx *sqlx.Tx, itemID uuid.UUID, links domain.AssociationReplacement) error {
	sets := map[domain.LinkKind]*[]uuid.UUID{
		domain.LinkKindHotel:      links.HotelIDs,
		domain.LinkKindAttraction: links.AttractionIDs,
		domain.LinkKindActivity:   links.LinkedActivityIDs,
	}
	for _, lt := range linkTables {
		ids := sets[lt.kind]
		if ids == nil {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE itinerary_item_id = $1`, lt.table), itemID); err != nil {
			return err
		}
		insert := fmt.Sprintf(`INSERT INTO %s (itinerary_item_id, %s, sort_order) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, lt.table, lt.column)
		for pos, targetID := range *ids {
			if _, err := tx.ExecContext(ctx, insert, itemID, targetID, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertActivity(ctx context.Context, q sqlx.QueryerContext, activity *domain.ItineraryActivity) (*domain.ItineraryActivity, error) {
	query := `
		WITH inserted AS (
			INSERT INTO itinerary_activity (
				itinerary_item_id, "time", activity_title, activity_description, location,
				attraction_id, duration_hours, is_meal, meal_type, order_index
			) VALUES ($1, $2::time, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING *
		)
		SELECT ` + activityColumns + ` FROM inserted
	`
	var created domain.ItineraryActivity
	err := sqlx.GetContext(ctx, q, &created, query,
		activity.ItineraryItemID,
		nullString(activity.Time),
		strings.TrimSpace(activity.ActivityTitle),
		nullString(activity.ActivityDescription),
		nullString(activity.Location),
		nullUUID(activity.AttractionID),
		nullFloat(activity.DurationHours),
		activity.IsMeal,
		nullMealType(activity.MealType),
		activity.OrderIndex,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func intArgs(values map[uuid.UUID]int) map[uuid.UUID]any {
	out := make(map[uuid.UUID]any, len(values))
	for id, v := range values {
		out[id] = v
	}
	return out
}

var _ ports.ItineraryRepository = (*ItineraryRepository)(nil)
