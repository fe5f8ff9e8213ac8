package biz_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kart-io/docbase/internal/docbase/store"
	"github.com/kart-io/docbase/internal/model"
	"github.com/kart-io/docbase/pkg/llm"
)

// syncQueue 同步执行任务的队列，用于让后台摄取在测试中同步完成。
type syncQueue struct{}

func (syncQueue) Submit(task func()) error {
	task()
	return nil
}

// fakeEmbedder 确定性地从文本生成向量并统计调用次数。
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = embedText(text)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// embedText 把文本映射到一个确定性的 4 维向量。
func embedText(text string) []float32 {
	var sum, alt float32
	for i, r := range text {
		sum += float32(r)
		if i%2 == 0 {
			alt += float32(r)
		}
	}
	n := float32(len(text) + 1)
	return []float32{sum / n, alt / n, n, 1}
}

// fakeChat 返回固定回答并统计 Chat 与 Generate 的调用次数。
type fakeChat struct {
	mu            sync.Mutex
	chatCalls     int
	generateCalls int
	reply         string
	title         string
	chatErr       error
	titleErr      error
	lastMessages  []llm.Message
}

func (f *fakeChat) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	f.lastMessages = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.reply, nil
}

func (f *fakeChat) Generate(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.title, nil
}

func (f *fakeChat) Name() string { return "fake" }

// fakeVectorStore 内存向量索引，支持过滤检索与按文档删除。
type fakeVectorStore struct {
	mu         sync.Mutex
	chunks     []store.Chunk
	embeddings [][]float32
	deleted    []string
	insertErr  error
}

var _ store.VectorStore = (*fakeVectorStore)(nil)

func (f *fakeVectorStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeVectorStore) Insert(_ context.Context, chunks []store.Chunk, embeddings [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.chunks = append(f.chunks, chunks...)
	f.embeddings = append(f.embeddings, embeddings...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, vector []float32, topK int, filter store.Filter) ([]store.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var results []store.SearchResult
	for i, chunk := range f.chunks {
		if !matches(chunk, filter) {
			continue
		}
		results = append(results, store.SearchResult{
			Chunk: chunk,
			Score: l2(vector, f.embeddings[i]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		return results[i].Chunk.ChunkID < results[j].Chunk.ChunkID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (f *fakeVectorStore) DeleteByDocument(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.chunks[:0]
	keptEmb := f.embeddings[:0]
	for i, chunk := range f.chunks {
		if chunk.DocumentID != documentID {
			kept = append(kept, chunk)
			keptEmb = append(keptEmb, f.embeddings[i])
		}
	}
	f.chunks = kept
	f.embeddings = keptEmb
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeVectorStore) Count(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.chunks)), nil
}

func (f *fakeVectorStore) chunksOf(documentID string) []store.Chunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Chunk
	for _, chunk := range f.chunks {
		if chunk.DocumentID == documentID {
			out = append(out, chunk)
		}
	}
	return out
}

func matches(chunk store.Chunk, filter store.Filter) bool {
	for _, pred := range filter {
		switch p := pred.(type) {
		case store.Eq:
			if chunkField(chunk, p.Field) != p.Value {
				return false
			}
		case store.In:
			found := false
			for _, v := range p.Values {
				if chunkField(chunk, p.Field) == v {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func chunkField(chunk store.Chunk, field string) string {
	switch field {
	case "project_id":
		return chunk.ProjectID
	case "document_id":
		return chunk.DocumentID
	case "chunk_id":
		return chunk.ChunkID
	default:
		return ""
	}
}

func l2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// fakeBlob 内存文件存储。
type fakeBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string][]byte)}
}

func (f *fakeBlob) Put(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlob) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (f *fakeBlob) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// memFactory 基于 map 的内存持久化，实现 store.Factory。
type memFactory struct {
	mu        sync.Mutex
	projects  map[string]*model.Project
	documents map[string]*model.Document
	chats     map[string]*model.Chat
	chatDocs  map[string][]string
	messages  map[string][]*model.Message
	msgByID   map[string]*model.Message
}

var _ store.Factory = (*memFactory)(nil)

func newMemFactory() *memFactory {
	return &memFactory{
		projects:  make(map[string]*model.Project),
		documents: make(map[string]*model.Document),
		chats:     make(map[string]*model.Chat),
		chatDocs:  make(map[string][]string),
		messages:  make(map[string][]*model.Message),
		msgByID:   make(map[string]*model.Message),
	}
}

func (m *memFactory) Projects() store.ProjectStore   { return (*memProjects)(m) }
func (m *memFactory) Documents() store.DocumentStore { return (*memDocuments)(m) }
func (m *memFactory) Chats() store.ChatStore         { return (*memChats)(m) }
func (m *memFactory) Messages() store.MessageStore   { return (*memMessages)(m) }

func (m *memFactory) Transaction(_ context.Context, fn func(tx store.Factory) error) error {
	return fn(m)
}

func (m *memFactory) DB() *gorm.DB { return nil }
func (m *memFactory) Close() error { return nil }

type memProjects memFactory

func (m *memProjects) Create(_ context.Context, project *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *memProjects) Get(_ context.Context, id string) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return project, nil
}

func (m *memProjects) List(context.Context) ([]*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Project
	for _, p := range m.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memProjects) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	return nil
}

type memDocuments memFactory

func (m *memDocuments) Create(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = doc
	return nil
}

func (m *memDocuments) Get(_ context.Context, id string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *memDocuments) ListByProject(_ context.Context, projectID string) ([]*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Document
	for _, doc := range m.documents {
		if doc.ProjectID == projectID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memDocuments) UpdateStatus(_ context.Context, id, status, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doc.Status = status
	doc.Error = errMsg
	return nil
}

func (m *memDocuments) FinishIndexing(_ context.Context, id string, chunkCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	doc.Status = model.StatusSuccessful
	doc.ChunkCount = chunkCount
	doc.Error = ""
	return nil
}

func (m *memDocuments) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	return nil
}

func (m *memDocuments) CountByProject(_ context.Context, projectID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, doc := range m.documents {
		if doc.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

type memChats memFactory

func (m *memChats) Create(_ context.Context, chat *model.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[chat.ID] = chat
	return nil
}

func (m *memChats) Get(_ context.Context, id string) (*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *chat
	return &copied, nil
}

func (m *memChats) ListByProject(_ context.Context, projectID string) ([]*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Chat
	for _, chat := range m.chats {
		if chat.ProjectID == projectID {
			out = append(out, chat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memChats) UpdateName(_ context.Context, id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.Name = name
	return nil
}

func (m *memChats) Touch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	chat.UpdatedAt = time.Now()
	return nil
}

func (m *memChats) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, id)
	delete(m.chatDocs, id)
	delete(m.messages, id)
	return nil
}

func (m *memChats) GetDocumentIDs(_ context.Context, chatID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.chatDocs[chatID]...), nil
}

func (m *memChats) AddDocuments(_ context.Context, chatID string, documentIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chatDocs[chatID] = append(m.chatDocs[chatID], documentIDs...)
	return nil
}

type memMessages memFactory

func (m *memMessages) Create(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	m.messages[msg.ChatID] = append(m.messages[msg.ChatID], msg)
	m.msgByID[msg.ID] = msg
	return nil
}

func (m *memMessages) Get(_ context.Context, id string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return msg, nil
}

func (m *memMessages) ListByChat(_ context.Context, chatID string) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Message(nil), m.messages[chatID]...), nil
}

func (m *memMessages) CountByChat(_ context.Context, chatID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.messages[chatID])), nil
}
