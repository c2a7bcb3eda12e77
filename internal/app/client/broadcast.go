package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
	"notekeeper/internal/domain/sync"
)

// broadcastRingSize - сколько последних событий хранится в файле.
// Поздний подписчик может восстановить недавнюю картину; потеря более
// старых событий безвредна - истина всегда в реплике.
const broadcastRingSize = 100

type eventsFile struct {
	Version int          `json:"version"`
	Events  []sync.Event `json:"events"`
}

// Broadcast - best-effort pub/sub между открытыми экземплярами приложения
// на одном устройстве. Доставка at-least-once, данные не авторитетны.
// Внутри процесса события доставляются синхронно; другие экземпляры
// замечают запись в общий файл через fsnotify.
type Broadcast struct {
	path     string
	instance string
	log      *slog.Logger

	mu      gosync.Mutex
	subs    map[int]func(sync.Event)
	nextSub int
	seq     int64
	seen    map[string]int64 // instance id -> последний доставленный seq

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewBroadcast(path string, log *slog.Logger) (*Broadcast, error) {
	b := &Broadcast{
		path:     path,
		instance: uuid.NewString(),
		log:      log,
		subs:     make(map[int]func(sync.Event)),
		seen:     make(map[string]int64),
	}

	// Текущий хвост файла считается уже виденным: подписчики этого
	// экземпляра не должны получать события, случившиеся до его старта
	for _, e := range b.readRing() {
		if e.Seq > b.seen[e.Instance] {
			b.seen[e.Instance] = e.Seq
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ошибка создания watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("ошибка подписки на директорию: %w", err)
	}

	b.watcher = watcher
	b.done = make(chan struct{})
	go b.watch()

	return b, nil
}

// Publish доставляет событие локальным подписчикам и дописывает его
// в общий файл для остальных экземпляров. Перезапись кольца идет под
// advisory-блокировкой: read-modify-write двух экземпляров одновременно
// не должен терять чужие события.
func (b *Broadcast) Publish(event sync.Event) {
	b.mu.Lock()
	b.seq++
	event.Seq = b.seq
	event.Instance = b.instance

	b.withRingLock(func() {
		ring := b.readRing()
		ring = append(ring, event)
		if len(ring) > broadcastRingSize {
			ring = ring[len(ring)-broadcastRingSize:]
		}
		if err := b.writeRing(ring); err != nil {
			// best-effort: локальная доставка все равно происходит
			b.log.Warn("broadcast write failed", "error", err)
		}
	})

	subs := b.snapshotSubsLocked()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// withRingLock держит flock на lock-файл рядом с кольцом на время fn.
// Недоступность блокировки не фатальна, запись все равно выполняется.
func (b *Broadcast) withRingLock(fn func()) {
	f, err := os.OpenFile(b.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		b.log.Warn("broadcast lock unavailable", "error", err)
		fn()
		return
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		b.log.Warn("broadcast lock failed", "error", err)
		fn()
		return
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	fn()
}

// Subscribe регистрирует подписчика и возвращает функцию отписки
func (b *Broadcast) Subscribe(fn func(sync.Event)) func() {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Recent возвращает хвост кольца - для позднего подписчика,
// которому нужна недавняя картина
func (b *Broadcast) Recent() []sync.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readRing()
}

func (b *Broadcast) Close() error {
	close(b.done)
	return b.watcher.Close()
}

func (b *Broadcast) watch() {
	for {
		select {
		case <-b.done:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(b.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			b.deliverForeign()
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.log.Warn("broadcast watcher error", "error", err)
		}
	}
}

// deliverForeign доставляет подписчикам события других экземпляров,
// которых мы еще не видели. Повторная доставка возможна - это допустимо
// (at-least-once), пропуск на работающем watcher-е - нет.
func (b *Broadcast) deliverForeign() {
	b.mu.Lock()
	ring := b.readRing()
	var fresh []sync.Event
	for _, e := range ring {
		if e.Instance == b.instance {
			continue
		}
		if e.Seq <= b.seen[e.Instance] {
			continue
		}
		b.seen[e.Instance] = e.Seq
		fresh = append(fresh, e)
	}
	subs := b.snapshotSubsLocked()
	b.mu.Unlock()

	for _, e := range fresh {
		for _, fn := range subs {
			fn(e)
		}
	}
}

func (b *Broadcast) snapshotSubsLocked() []func(sync.Event) {
	subs := make([]func(sync.Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (b *Broadcast) readRing() []sync.Event {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil
	}

	var file eventsFile
	if err := json.Unmarshal(data, &file); err != nil {
		b.log.Warn("broadcast ring unreadable, resetting", "error", err)
		return nil
	}
	return file.Events
}

func (b *Broadcast) writeRing(events []sync.Event) error {
	data, err := json.Marshal(eventsFile{Version: 1, Events: events})
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0600)
}
