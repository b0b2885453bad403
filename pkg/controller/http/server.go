package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/procrisk/pkg/domain/model"
	"github.com/secmon-lab/procrisk/pkg/usecase"
	"github.com/secmon-lab/procrisk/pkg/utils/logging"
	"github.com/secmon-lab/procrisk/pkg/utils/safe"
)

type Server struct {
	router  *chi.Mux
	uc      *usecase.UseCases
	noAuthn *model.Actor
}

type Options func(*Server)

// WithNoAuthn runs every request as actor. For local use only.
func WithNoAuthn(actor model.Actor) Options {
	return func(s *Server) {
		s.noAuthn = &actor
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		safe.Write(r.Context(), w, []byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(actorMiddleware(s.noAuthn))

		r.Route("/risk-infos", func(r chi.Router) {
			r.Get("/", s.listRiskInfos)
			r.Post("/", s.createRiskInfo)
			r.Get("/{infoID}", s.getRiskInfo)
			r.Put("/{infoID}", s.updateRiskInfo)
			r.Delete("/{infoID}", s.deleteRiskInfo)
		})

		r.Route("/risks", func(r chi.Router) {
			r.Get("/", s.listRisks)
			r.Post("/", s.reportRisk)
			r.Route("/{riskID}", func(r chi.Router) {
				r.Get("/", s.getRisk)
				r.Patch("/", s.updateRisk)
				r.Delete("/", s.deleteRisk)
				r.Put("/threshold", s.setThreshold)
				r.Post("/confirm", s.confirmRisk)
				r.Post("/deactivate", s.deactivateRisk)
				r.Post("/reactivate", s.reactivateRisk)
				r.Get("/evaluations", s.listEvaluations)
				r.Post("/evaluations", s.recordEvaluation)
				r.Get("/activities", s.listActivities)
				r.Get("/treatment", s.getTreatment)
				r.Get("/subtasks", s.listSubtasks)
				r.Post("/subtasks", s.addSubtask)
			})
		})

		r.Get("/evaluations/{evalID}", s.getEvaluation)
		r.Post("/evaluations/{evalID}/validate", s.validateEvaluation)

		r.Post("/subtasks/{taskID}/close", s.closeSubtask)
		r.Post("/subtasks/{taskID}/reopen", s.reopenSubtask)

		r.Get("/profile", s.profile)

		r.Route("/processes", func(r chi.Router) {
			r.Get("/", s.listProcesses)
			r.Post("/", s.createProcess)
			r.Post("/zero", s.ensureProcessZero)
			r.Post("/rerank", s.rerankProcesses)
			r.Get("/graph", s.processGraph)
			r.Route("/{processID}", func(r chi.Router) {
				r.Get("/", s.getProcess)
				r.Put("/", s.updateProcess)
				r.Delete("/", s.deleteProcess)
				r.Put("/inputs/{dataID}", s.addInput)
				r.Delete("/inputs/{dataID}", s.removeInput)
			})
		})

		r.Route("/partners", func(r chi.Router) {
			r.Get("/", s.listPartners)
			r.Post("/", s.createPartner)
			r.Put("/{partnerID}", s.updatePartner)
			r.Delete("/{partnerID}", s.deletePartner)
		})

		r.Route("/data", func(r chi.Router) {
			r.Get("/", s.listData)
			r.Post("/", s.createData)
			r.Put("/{dataID}", s.updateData)
			r.Delete("/{dataID}", s.deleteData)
		})

		r.Route("/review", func(r chi.Router) {
			r.Post("/sweep", s.sweepReviews)
			r.Get("/overdue", s.overdueActivities)
			r.Get("/validate", s.validateDB)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
