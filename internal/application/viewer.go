package app

import (
	"sync"
	"time"

	"damage-portal/internal/chat"
	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
)

// Snapshot копия видимого состояния просмотра.
type Snapshot struct {
	Image         string
	Index         int
	Total         int
	Task          entity.Task
	Detections    []entity.Detection
	Meta          *entity.ImageMeta
	Loading       bool
	Analyzing     bool
	Error         string
	AnalysisError string
	Report        *entity.CanonicalReport
	Chat          []entity.ChatMessage
	ChatSending   bool
}

// CanAnalyze анализ повреждений доступен только для найденных деталей.
func (s Snapshot) CanAnalyze() bool {
	return s.Task == entity.TaskParts && len(s.Detections) > 0
}

// viewer состояние просмотра одного чата. Поля, кроме chat, читаются и пишутся под mu.
type viewer struct {
	mu sync.Mutex

	images      []string
	index       int
	task        entity.Task
	detections  []entity.Detection
	meta        *entity.ImageMeta
	loading     bool
	analyzing   bool
	err         string
	analysisErr string
	report      *entity.CanonicalReport

	// seq меняется при каждом запросе детекции и при сбросе;
	// отложенное применение сверяет свой токен с ним.
	seq   uint64
	epoch uint64
	timer *time.Timer

	chat *chat.Session
}

func newViewer(task entity.Task, chatSvc port.ChatService) *viewer {
	return &viewer{task: task, chat: chat.NewSession(chatSvc)}
}

func (v *viewer) current() string {
	if len(v.images) == 0 {
		return ""
	}
	return v.images[max(0, min(v.index, len(v.images)-1))]
}

// reset сбрасывает всё, что относится к прежним изображению и задаче.
func (v *viewer) reset() {
	v.detections = nil
	v.meta = nil
	v.loading = false
	v.analyzing = false
	v.err = ""
	v.analysisErr = ""
	v.report = nil
	v.seq++
	v.epoch++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.chat.Bind(v.current(), nil)
}

func (v *viewer) setImages(images []string) {
	prev := v.current()
	v.images = append([]string(nil), images...)
	if prev == "" || v.current() != prev {
		v.index = 0
		v.reset()
	}
}

func (v *viewer) move(delta int) {
	if len(v.images) == 0 {
		return
	}
	next := max(0, min(v.index+delta, len(v.images)-1))
	if next == v.index {
		return
	}
	v.index = next
	v.reset()
}

func (v *viewer) setTask(task entity.Task) {
	if task == v.task {
		return
	}
	v.task = task
	v.reset()
}

func (v *viewer) snapshot() Snapshot {
	s := Snapshot{
		Image:         v.current(),
		Index:         v.index,
		Total:         len(v.images),
		Task:          v.task,
		Detections:    append([]entity.Detection(nil), v.detections...),
		Loading:       v.loading,
		Analyzing:     v.analyzing,
		Error:         v.err,
		AnalysisError: v.analysisErr,
		Report:        v.report,
		Chat:          v.chat.Messages(),
		ChatSending:   v.chat.Sending(),
	}
	if v.meta != nil {
		m := *v.meta
		s.Meta = &m
	}
	return s
}
