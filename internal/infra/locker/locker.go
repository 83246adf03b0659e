package locker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "salon:sweep-lock:"

// ErrAcquire ошибка бэкенда при захвате блокировки
var ErrAcquire = errors.New("locker: failed to acquire lock")

// Release освобождает захваченную блокировку
type Release func(ctx context.Context)

// Locker гарантирует единственный запуск прохода по имени
type Locker interface {
	// TryLock возвращает ok=false, если блокировка уже занята
	TryLock(ctx context.Context, name string, ttl time.Duration) (Release, bool, error)
}

// releaseScript удаляет ключ, только если он принадлежит владельцу
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker блокировка через SET NX PX, общая для всех реплик
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker создает блокировщик поверх клиента Redis
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock пытается захватить блокировку на ttl
func (l *RedisLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (Release, bool, error) {
	key := keyPrefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("%w: TryLock - name=%s: %v", ErrAcquire, name, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}

// LocalLocker блокировка в пределах процесса (без Redis)
type LocalLocker struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]localLock
}

type localLock struct {
	token     string
	expiresAt time.Time
}

// NewLocalLocker создает блокировщик в памяти процесса
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		now:  time.Now,
		held: make(map[string]localLock),
	}
}

// TryLock пытается захватить блокировку на ttl
func (l *LocalLocker) TryLock(_ context.Context, name string, ttl time.Duration) (Release, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if current, ok := l.held[name]; ok && now.Before(current.expiresAt) {
		return nil, false, nil
	}

	token := uuid.NewString()
	l.held[name] = localLock{token: token, expiresAt: now.Add(ttl)}

	release := func(context.Context) {
		l.mu.Lock()
		defer l.mu.Unlock()
		if current, ok := l.held[name]; ok && current.token == token {
			delete(l.held, name)
		}
	}
	return release, true, nil
}
