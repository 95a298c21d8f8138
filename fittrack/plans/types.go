package plans

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
)

// largest page a plan listing returns
const MaxListLimit = 20

type Repository struct {
	db *pgxpool.Pool
}

// a successful AI coaching response kept for the user
type Plan struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Kind      string          `json:"kind"`
	Prompt    string          `json:"prompt"`
	Response  string          `json:"response"`
	Credits   CreditsSnapshot `json:"creditsSnapshot"`
	Applied   bool            `json:"applied"`
	CreatedAt time.Time       `json:"createdAt"`
}

// credit balance right after the response was paid for
type CreditsSnapshot struct {
	Hourly int `json:"hourly"`
	Daily  int `json:"daily"`
}

func (c CreditsSnapshot) Value() (driver.Value, error) {
	bytes, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	return string(bytes), nil
}

func (c *CreditsSnapshot) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*c = CreditsSnapshot{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported credits snapshot type %T", value)
	}
}

type CreatePlanRequest struct {
	Kind     string
	Prompt   string
	Response string
	Credits  CreditsSnapshot
}
