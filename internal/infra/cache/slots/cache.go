package slots

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

const keyPrefix = "slots:"

// Cache кэш рассчитанных списков слотов
// Ошибки бэкенда не пробрасываются: промах кэша ведет к пересчету
type Cache interface {
	Get(ctx context.Context, key string) ([]types.TimeString, bool)
	Set(ctx context.Context, key string, slots []types.TimeString)
	InvalidateDate(ctx context.Context, date time.Time)
	Clear(ctx context.Context)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Key ключ списка слотов: slots:{date}:{stylist|any}:{duration}:{services}
func Key(date time.Time, stylistID *int64, durationMinutes int, serviceIDs []int64) string {
	stylist := "any"
	if stylistID != nil {
		stylist = strconv.FormatInt(*stylistID, 10)
	}

	ids := append([]int64(nil), serviceIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}

	return fmt.Sprintf("%s%s:%d:%s", datePrefix(date), stylist, durationMinutes, strings.Join(parts, ","))
}

func datePrefix(date time.Time) string {
	return keyPrefix + date.Format(domain.DateFormat) + ":"
}

// Nop кэш-заглушка для отключенного кэширования
type Nop struct{}

func (Nop) Get(context.Context, string) ([]types.TimeString, bool) { return nil, false }
func (Nop) Set(context.Context, string, []types.TimeString)        {}
func (Nop) InvalidateDate(context.Context, time.Time)              {}
func (Nop) Clear(context.Context)                                  {}
