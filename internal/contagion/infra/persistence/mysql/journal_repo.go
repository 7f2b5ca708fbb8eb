package mysql

import (
	"context"

	"Pandemic/internal/contagion/app/port"
	"Pandemic/internal/contagion/domain"
	"Pandemic/internal/contagion/entity"
	"Pandemic/internal/contagion/infra/persistence/model"
	"Pandemic/modules/kit/errx"

	"gorm.io/gorm"
)

const OpAppendEvent = "repo.journal.Append"

type JournalRepo struct {
	db *gorm.DB
}

func NewJournalRepo(db *gorm.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// AutoMigrate 建表（开发环境使用）。
func (r *JournalRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&model.Event{})
}

func (r *JournalRepo) ForGame(id entity.GameID) port.Journal {
	return &gameJournal{db: r.db, gameID: id}
}

// Events 按序号读取一局的全部事件。
func (r *JournalRepo) Events(ctx context.Context, id entity.GameID) ([]domain.Event, error) {
	var rows []model.Event
	err := r.db.WithContext(ctx).
		Where("game_id = ?", string(id)).
		Order("seq asc").
		Find(&rows).Error
	if err != nil {
		return nil, errx.ErrUnavailable.WithData("op", "repo.journal.Events").WithCause(err)
	}
	out := make([]domain.Event, 0, len(rows))
	for _, m := range rows {
		out = append(out, model.ModelToEvent(m))
	}
	return out, nil
}

type gameJournal struct {
	db     *gorm.DB
	gameID entity.GameID
}

func (j *gameJournal) Append(ctx context.Context, e domain.Event) error {
	m := model.EventToModel(j.gameID, e)
	if err := j.db.WithContext(ctx).Create(&m).Error; err != nil {
		return errx.ErrUnavailable.
			WithData("op", OpAppendEvent).
			WithData("game_id", j.gameID).
			WithData("seq", e.Seq).
			WithCause(err)
	}
	return nil
}
