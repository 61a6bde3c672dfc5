package reading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// readingRow is the gorm mapping of the blood_pressure table.
type readingRow struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	ClientRef     *int64    `gorm:"uniqueIndex:uq_blood_pressure_client_ref"`
	UpperPressure int       `gorm:"not null"`
	LowerPressure int       `gorm:"not null"`
	PulseRate     int       `gorm:"not null"`
	InputDate     string    `gorm:"type:text;not null;uniqueIndex:uq_blood_pressure_taken_at,priority:1;index:idx_blood_pressure_input_date"`
	InputTime     string    `gorm:"type:text;not null;uniqueIndex:uq_blood_pressure_taken_at,priority:2"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (readingRow) TableName() string { return "blood_pressure" }

func rowFromReading(r *Reading) readingRow {
	return readingRow{
		ID:            r.ID,
		ClientRef:     r.ClientRef,
		UpperPressure: r.Systolic,
		LowerPressure: r.Diastolic,
		PulseRate:     r.Pulse,
		InputDate:     r.Date,
		InputTime:     r.Time,
		CreatedAt:     r.CreatedAt,
	}
}

func (row readingRow) reading() *Reading {
	return &Reading{
		ID:        row.ID,
		ClientRef: row.ClientRef,
		Systolic:  row.UpperPressure,
		Diastolic: row.LowerPressure,
		Pulse:     row.PulseRate,
		Date:      row.InputDate,
		Time:      row.InputTime,
		CreatedAt: row.CreatedAt,
	}
}

// AutoMigrate creates or updates the blood_pressure table for gorm-backed
// stores.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&readingRow{}); err != nil {
		return fmt.Errorf("migrate blood_pressure: %w", err)
	}
	return nil
}

type repoGorm struct{ db *gorm.DB }

// NewRepoGorm returns a Repository on top of a gorm connection, used for
// the embedded SQLite store.
func NewRepoGorm(db *gorm.DB) Repository {
	return &repoGorm{db: db}
}

func (r *repoGorm) Create(ctx context.Context, rd *Reading) error {
	row := rowFromReading(rd)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return mapGormError("insert reading", err)
	}
	rd.ID = row.ID
	rd.CreatedAt = row.CreatedAt
	return nil
}

func (r *repoGorm) GetByID(ctx context.Context, id int64) (*Reading, error) {
	var row readingRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, mapGormError("get reading", err)
	}
	return row.reading(), nil
}

func (r *repoGorm) GetByClientRef(ctx context.Context, ref int64) (*Reading, error) {
	var row readingRow
	if err := r.db.WithContext(ctx).Where("client_ref = ?", ref).First(&row).Error; err != nil {
		return nil, mapGormError("get reading by client ref", err)
	}
	return row.reading(), nil
}

func (r *repoGorm) Update(ctx context.Context, rd *Reading) error {
	tx := r.db.WithContext(ctx).Model(&readingRow{}).Where("id = ?", rd.ID).Updates(map[string]interface{}{
		"upper_pressure": rd.Systolic,
		"lower_pressure": rd.Diastolic,
		"pulse_rate":     rd.Pulse,
		"input_date":     rd.Date,
		"input_time":     rd.Time,
	})
	if tx.Error != nil {
		return mapGormError("update reading", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoGorm) Delete(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).Delete(&readingRow{}, id)
	if tx.Error != nil {
		return fmt.Errorf("delete reading: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoGorm) List(ctx context.Context, f Filter) ([]*Reading, int, error) {
	inRange := func(tx *gorm.DB) *gorm.DB {
		if f.HasRange() {
			return tx.Where("input_date BETWEEN ? AND ?", f.From, f.To)
		}
		return tx
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&readingRow{}).Scopes(inRange).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count readings: %w", err)
	}

	q := r.db.WithContext(ctx).Scopes(inRange).Order("input_date DESC, input_time DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var rows []readingRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list readings: %w", err)
	}

	items := make([]*Reading, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.reading())
	}
	return items, int(total), nil
}

func (r *repoGorm) ExistsAt(ctx context.Context, date, clock string, excludeID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&readingRow{}).
		Where("input_date = ? AND input_time = ? AND id <> ?", date, clock, excludeID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check reading timestamp: %w", err)
	}
	return n > 0, nil
}

func mapGormError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		switch {
		case strings.Contains(msg, "input_date"):
			return ErrDuplicateTimestamp
		case strings.Contains(msg, "client_ref"):
			return errDuplicateClientRef
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
