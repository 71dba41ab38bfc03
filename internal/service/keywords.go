// 운영자가 관리하는 장애 키워드 서비스
//
// DB에 저장된 키워드를 Guard의 problem 어휘에 더해 새 Guard를 만들고 교체
// 목록은 TTL 동안 캐시하며, 추가/삭제 시 즉시 다시 읽음

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ffnexus/incident-watch/internal/classifier"
	"github.com/ffnexus/incident-watch/internal/clock"
)

const maxKeywordRunes = 64

// ErrInvalidKeyword - 비어 있거나 너무 긴 키워드
var ErrInvalidKeyword = errors.New("invalid keyword")

// keywordRepo - DB 인터페이스
type keywordRepo interface {
	ListIncidentKeywords(ctx context.Context) ([]string, error)
	AddIncidentKeywords(ctx context.Context, keywords []string) (int, error)
	DeleteIncidentKeyword(ctx context.Context, keyword string) error
}

// KeywordService 구조체 정의
type KeywordService struct {
	repo     keywordRepo
	lexicon  *classifier.Lexicon
	guardOpt classifier.GuardOptions
	apply    func(*classifier.Guard)
	ttl      time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	// 목록 조회부터 Guard 교체까지 한 번에 하나의 갱신만 진행
	refreshMu sync.Mutex

	mu       sync.Mutex
	cached   []string
	loadedAt time.Time
}

// KeywordOptions - KeywordService 설정
type KeywordOptions struct {
	TTL    time.Duration
	Clock  clock.Clock
	Logger *slog.Logger
}

// KeywordService 객체 생성
// apply는 새로 만든 Guard를 파이프라인에 반영하는 함수 (예: IncidentService.SetGuard)
func NewKeywordService(repo keywordRepo, lex *classifier.Lexicon, guardOpt classifier.GuardOptions, apply func(*classifier.Guard), opts KeywordOptions) *KeywordService {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &KeywordService{
		repo:     repo,
		lexicon:  lex,
		guardOpt: guardOpt,
		apply:    apply,
		ttl:      opts.TTL,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
}

// List - 캐시된 키워드 목록 (TTL 만료 시 다시 로드)
func (s *KeywordService) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	fresh := !s.loadedAt.IsZero() && s.clock.Now().Sub(s.loadedAt) < s.ttl
	cached := append([]string(nil), s.cached...)
	s.mu.Unlock()
	if fresh {
		return cached, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.cached...), nil
}

// Add - 키워드 추가 후 Guard 갱신, 새로 추가된 수 반환
func (s *KeywordService) Add(ctx context.Context, keywords []string) (int, error) {
	cleaned := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		n, err := normalizeKeyword(kw)
		if err != nil {
			return 0, err
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		cleaned = append(cleaned, n)
	}
	if len(cleaned) == 0 {
		return 0, fmt.Errorf("%w: no keywords given", ErrInvalidKeyword)
	}

	added, err := s.repo.AddIncidentKeywords(ctx, cleaned)
	if err != nil {
		return 0, err
	}
	if err := s.Refresh(ctx); err != nil {
		return added, err
	}
	return added, nil
}

// Delete - 키워드 삭제 후 Guard 갱신
func (s *KeywordService) Delete(ctx context.Context, keyword string) error {
	n, err := normalizeKeyword(keyword)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteIncidentKeyword(ctx, n); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Refresh - DB에서 키워드를 읽어 Guard를 다시 만들고 교체
// 동시에 호출되면 순서대로 실행되므로 나중에 읽은 목록이 항상 마지막에 반영됨
func (s *KeywordService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	keywords, err := s.repo.ListIncidentKeywords(ctx)
	if err != nil {
		return fmt.Errorf("failed to load incident keywords: %w", err)
	}

	opts := s.guardOpt
	opts.ExtraProblemTerms = keywords
	guard, err := classifier.NewGuard(s.lexicon, opts)
	if err != nil {
		return fmt.Errorf("failed to rebuild guard: %w", err)
	}
	if s.apply != nil {
		s.apply(guard)
	}

	s.mu.Lock()
	s.cached = keywords
	s.loadedAt = s.clock.Now()
	s.mu.Unlock()

	s.logger.Debug("incident keywords refreshed", "keywords", len(keywords), "problem_terms", guard.ProblemTermCount())
	return nil
}

// Run - TTL마다 Refresh (실패는 로그만 남기고 이전 Guard 유지)
func (s *KeywordService) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn("initial keyword refresh failed", "error", err)
	}

	ticker := s.clock.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Warn("keyword refresh failed", "error", err)
			}
		}
	}
}

func normalizeKeyword(kw string) (string, error) {
	n := classifier.Normalize(kw)
	if n == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKeyword)
	}
	if utf8.RuneCountInString(n) > maxKeywordRunes {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidKeyword, maxKeywordRunes)
	}
	return n, nil
}
