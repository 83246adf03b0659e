package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-SalonScheduler/internal/service/appointments/models"
)

// Service сервис чтения записей
type Service struct {
	appointmentRepo AppointmentRepository
	depositRepo     DepositRepository
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	depositRepo DepositRepository,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		depositRepo:     depositRepo,
		logger:          logger,
	}
}

// GetByID получает запись по ID
// Запись видят клиент-владелец, назначенный мастер и администратор
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%d, role=%s", id, actor.Role)

	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%d not found", id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByID: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !actor.CanManage(appointment) {
		s.logger.Warn("GetByID: access denied to appointment id=%d", id)
		return nil, ErrAccessDenied
	}

	resp := models.FromDomainAppointment(appointment)

	// Ссылка на оплату нужна клиенту, пока холд не истек
	if appointment.DepositID != nil {
		deposit, err := s.depositRepo.GetByID(ctx, *appointment.DepositID)
		if err != nil {
			s.logger.Warn("GetByID: deposit id=%d of appointment id=%d not loaded: %v", *appointment.DepositID, id, err)
		} else {
			resp.Deposit = models.FromDomainDeposit(deposit)
		}
	}

	return resp, nil
}

// GetUserAppointments получает историю записей пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserAppointments(ctx context.Context, req *models.GetUserAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("GetUserAppointments: fetching appointments for user=%d, status=%v", req.UserID, req.Status)

	if !req.Actor.IsAdmin() && (req.Actor.UserID == nil || *req.Actor.UserID != req.UserID) {
		s.logger.Warn("GetUserAppointments: access denied to appointments of user=%d", req.UserID)
		return nil, ErrAccessDenied
	}

	filter := domain.AppointmentFilter{CustomerUserID: &req.UserID}
	if req.Status != nil {
		status, err := models.ToDomainStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetUserAppointments: invalid status=%s for user=%d", *req.Status, req.UserID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		filter.Statuses = []domain.AppointmentStatus{status}
	}

	list, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserAppointments: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserAppointments - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserAppointments: fetched %d appointments for user=%d", len(list), req.UserID)
	return models.FromDomainAppointmentList(list), nil
}

// ListAppointments выборка записей салона за период
// Администратор видит все записи, мастер только свои
func (s *Service) ListAppointments(ctx context.Context, req *models.ListAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("ListAppointments: role=%s, stylist=%v, period=%v..%v", req.Actor.Role, req.StylistID, req.StartDate, req.EndDate)

	switch {
	case req.Actor.IsAdmin():
	case req.Actor.Role == domain.RoleStylist && req.Actor.StylistID != nil:
		if req.StylistID != nil && *req.StylistID != *req.Actor.StylistID {
			s.logger.Warn("ListAppointments: stylist=%d requested appointments of stylist=%d", *req.Actor.StylistID, *req.StylistID)
			return nil, ErrAccessDenied
		}
		req.StylistID = req.Actor.StylistID
	default:
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListAppointments: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	list, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListAppointments: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListAppointments - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAppointmentList(list), nil
}
