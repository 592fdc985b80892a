package postgres

import (
	journalDatamodel "github.com/frahmantamala/rsms-admin/internal/core/datamodel/journal"
	"github.com/frahmantamala/rsms-admin/internal/journal"
	"gorm.io/gorm"
)

type JournalRepository struct {
	db *gorm.DB
}

func NewJournalRepository(db *gorm.DB) journal.RepositoryAPI {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) Create(entry *journalDatamodel.Entry) error {
	return r.db.Create(entry).Error
}

func (r *JournalRepository) Recent(limit int) ([]*journalDatamodel.Entry, error) {
	var entries []*journalDatamodel.Entry
	err := r.db.Order("occurred_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

func (r *JournalRepository) ForUser(userID int64, limit int) ([]*journalDatamodel.Entry, error) {
	var entries []*journalDatamodel.Entry
	err := r.db.Where("user_id = ?", userID).Order("occurred_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
