package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// ReportRow — агрегированная строка отчёта по активности клуба: раунд,
// победитель и сводные счётчики.
type ReportRow struct {
	RoundID         uint64
	Status          string
	StartedAt       time.Time
	FinishedAt      *time.Time
	WinnerTitle     *string
	Recommendations uint64
	Votes           uint64
	Completions     uint64
	AvgRating       *float64
}

type ReportRepositoryInterface interface {
	GetClubActivity(ctx context.Context, clubID uint64) ([]ReportRow, error)
}

type ReportRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewReportRepository(storage *pgxpool.Pool, logger *zap.Logger) ReportRepositoryInterface {
	return &ReportRepository{storage: storage, logger: logger}
}

func (r *ReportRepository) GetClubActivity(ctx context.Context, clubID uint64) ([]ReportRow, error) {
	query := `
        SELECT rd.id,
               rd.status,
               rd.started_at,
               rd.finished_at,
               w.title,
               (SELECT COUNT(*) FROM recommendations rec WHERE rec.round_id = rd.id),
               (SELECT COUNT(*) FROM votes v WHERE v.round_id = rd.id),
               (SELECT COUNT(*) FROM completions c WHERE c.round_id = rd.id),
               (SELECT AVG(c.rating) FROM completions c WHERE c.round_id = rd.id AND c.rating IS NOT NULL)
        FROM rounds rd
        LEFT JOIN recommendations w ON w.id = rd.winner_id
        WHERE rd.club_id = $1
        ORDER BY rd.started_at DESC
    `

	rows, err := r.storage.Query(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := make([]ReportRow, 0)
	for rows.Next() {
		var row ReportRow
		if err := rows.Scan(
			&row.RoundID, &row.Status, &row.StartedAt, &row.FinishedAt,
			&row.WinnerTitle, &row.Recommendations, &row.Votes, &row.Completions, &row.AvgRating,
		); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
