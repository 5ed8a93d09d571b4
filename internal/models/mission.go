package models

import "time"

// MissionGenre enumerates the writing genres teachers can assign.
type MissionGenre string

const (
	GenrePoem       MissionGenre = "시"
	GenreEssay      MissionGenre = "수필"
	GenreDiary      MissionGenre = "일기"
	GenreOpinion    MissionGenre = "논설문"
	GenreExpository MissionGenre = "설명문"
)

// Genres lists the accepted mission genres in display order.
var Genres = []MissionGenre{GenrePoem, GenreEssay, GenreDiary, GenreOpinion, GenreExpository}

// ValidGenre reports whether g is one of the accepted genres.
func ValidGenre(g MissionGenre) bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// WritingMission is a posted writing assignment with its reward rules.
type WritingMission struct {
	ID             string       `db:"id" json:"id"`
	ClassID        string       `db:"class_id" json:"class_id"`
	Title          string       `db:"title" json:"title"`
	Guide          string       `db:"guide" json:"guide"`
	Genre          MissionGenre `db:"genre" json:"genre"`
	MinChars       int          `db:"min_chars" json:"min_chars"`
	MinParagraphs  int          `db:"min_paragraphs" json:"min_paragraphs"`
	BaseReward     int          `db:"base_reward" json:"base_reward"`
	BonusThreshold int          `db:"bonus_threshold" json:"bonus_threshold"`
	BonusReward    int          `db:"bonus_reward" json:"bonus_reward"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}
