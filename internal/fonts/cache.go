package fonts

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/alnah/go-resume2pdf/internal/style"
)

// Candidate names a font family and its files. Relative paths are resolved
// against the provider's directory.
type Candidate struct {
	Family  string
	Regular string
	Bold    string
}

// DefaultCandidates is the preferred CJK-capable chain, best first.
var DefaultCandidates = []Candidate{
	{
		Family:  "HarmonyOS Sans SC",
		Regular: filepath.Join("HarmonyOS Sans", "HarmonyOS_Sans_SC", "HarmonyOS_Sans_SC_Regular.ttf"),
		Bold:    filepath.Join("HarmonyOS Sans", "HarmonyOS_Sans_SC", "HarmonyOS_Sans_SC_Bold.ttf"),
	},
	{Family: "HarmonyOS Sans SC", Regular: "HarmonyOS_Sans_SC_Regular.ttf", Bold: "HarmonyOS_Sans_SC_Bold.ttf"},
	{Family: "Source Han Sans SC", Regular: "SourceHanSansSC-Regular.ttf", Bold: "SourceHanSansSC-Bold.ttf"},
	{Family: "Noto Sans CJK SC", Regular: "NotoSansCJKsc-Regular.ttf", Bold: "NotoSansCJKsc-Bold.ttf"},
	{Family: "Noto Sans SC", Regular: "NotoSansSC-Regular.ttf", Bold: "NotoSansSC-Bold.ttf"},
}

// SystemCandidates are absolute paths tried after the font directory.
var SystemCandidates = []Candidate{
	{Family: "Noto Sans SC", Regular: "/usr/share/fonts/truetype/noto/NotoSansSC-Regular.ttf", Bold: "/usr/share/fonts/truetype/noto/NotoSansSC-Bold.ttf"},
	{Family: "WenQuanYi Micro Hei", Regular: "/usr/share/fonts/truetype/wqy/wqy-microhei.ttf"},
	{Family: "Arial Unicode MS", Regular: "/Library/Fonts/Arial Unicode.ttf"},
	{Family: "SimHei", Regular: `C:\Windows\Fonts\simhei.ttf`},
}

// Cache resolves once and serves the result to every caller afterwards.
type Cache struct {
	attempts []Attempt
	fallback Face
	logger   *zap.Logger

	once     sync.Once
	face     Face
	resolved bool
	err      error
}

// NewCache creates a cache over attempts. The fallback is used when every
// attempt fails. A nil logger disables logging.
func NewCache(logger *zap.Logger, fallback Face, attempts ...Attempt) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{attempts: attempts, fallback: fallback, logger: logger}
}

// Resolve implements Provider. The first call runs the chain; later calls
// return the same answer.
func (c *Cache) Resolve(style.Role) (Face, bool) {
	c.once.Do(c.load)
	return c.face, c.resolved
}

// Err returns why the preferred fonts were unavailable, after Resolve.
func (c *Cache) Err() error {
	c.once.Do(c.load)
	return c.err
}

func (c *Cache) load() {
	face, err := Chain(c.attempts...)
	if err != nil {
		c.face, c.err = c.fallback, err
		c.logger.Warn("preferred fonts unavailable, using fallback",
			zap.String("fallback", c.fallback.Family),
			zap.Error(err))
		return
	}
	c.face, c.resolved = face, true
	c.logger.Debug("font resolved", zap.String("family", face.Family))
}

// CandidateAttempts turns candidates into attempts, joining relative paths
// onto dir.
func CandidateAttempts(dir string, candidates ...Candidate) []Attempt {
	attempts := make([]Attempt, 0, len(candidates))
	for _, cand := range candidates {
		attempts = append(attempts, FileAttempt(cand.Family, resolvePath(dir, cand.Regular), resolvePath(dir, cand.Bold)))
	}
	return attempts
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Join(dir, p)
}

// NewDirProvider searches dir for DefaultCandidates, then SystemCandidates.
// When none resolves, the Go fonts are substituted.
func NewDirProvider(dir string, logger *zap.Logger) *Cache {
	var attempts []Attempt
	if dir != "" {
		attempts = append(attempts, CandidateAttempts(dir, DefaultCandidates...)...)
	}
	attempts = append(attempts, CandidateAttempts("", SystemCandidates...)...)
	return NewCache(logger, GoFace(), attempts...)
}

var shared = struct {
	mu     sync.Mutex
	caches map[string]*Cache
}{caches: make(map[string]*Cache)}

// Shared returns the process-wide provider for dir, creating it on first use.
// All converters in a process share it, so fonts are read from disk once.
func Shared(dir string, logger *zap.Logger) *Cache {
	key := filepath.Clean(dir)
	if dir == "" {
		key = ""
	}

	shared.mu.Lock()
	defer shared.mu.Unlock()

	if c, ok := shared.caches[key]; ok {
		return c
	}
	c := NewDirProvider(dir, logger)
	shared.caches[key] = c
	return c
}
