package academic

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт чтения учебных данных. Только точечные запросы и выборки по
// набору идентификаторов; операций записи нет.
// Реализация находится в infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции чтения над сущностями пакета.
// Порядок результатов - порядок вставки в хранилище, без пересортировки.
// Пустой набор идентификаторов даёт пустой результат без обращения к хранилищу.
type Repository interface {
	// GetUser возвращает пользователя по ID.
	// Возвращает ошибку вида shared.ErrNotFound, если записи нет.
	GetUser(ctx context.Context, id ID) (*User, error)

	// FindUsersByIDs возвращает пользователей по списку ID (одним запросом).
	FindUsersByIDs(ctx context.Context, ids []ID) ([]User, error)

	// FindActiveSessions возвращает сессии в состоянии ACTIVE.
	// collegeID != nil ограничивает выборку организацией.
	FindActiveSessions(ctx context.Context, collegeID *ID) ([]Session, error)

	// FindSessionsByIDs возвращает сессии по списку ID.
	FindSessionsByIDs(ctx context.Context, ids []ID) ([]Session, error)

	// FindEnrollmentsByStudent возвращает все записи студента на курсы.
	FindEnrollmentsByStudent(ctx context.Context, studentID ID) ([]Enrollment, error)

	// FindCoursesByIDs возвращает курсы из ids, чья сессия входит в sessionIDs.
	FindCoursesByIDs(ctx context.Context, ids []ID, sessionIDs []ID) ([]Course, error)

	// FindCategoriesByCourses возвращает категории рубрик указанных курсов.
	FindCategoriesByCourses(ctx context.Context, courseIDs []ID) ([]GradeCategory, error)

	// FindItemsByCourses возвращает оцениваемые работы указанных курсов.
	FindItemsByCourses(ctx context.Context, courseIDs []ID) ([]GradeItem, error)

	// FindGradesByStudent возвращает оценки студента по указанным курсам.
	FindGradesByStudent(ctx context.Context, studentID ID, courseIDs []ID) ([]Grade, error)

	// FindDocumentsByCourses возвращает документы указанных курсов.
	FindDocumentsByCourses(ctx context.Context, courseIDs []ID) ([]Document, error)

	// FindReportsByStudent возвращает отзывы о студенте.
	// courseIDs == nil - все отзывы студента, включая отзывы без курса.
	FindReportsByStudent(ctx context.Context, studentID ID, courseIDs []ID) ([]Report, error)

	// GetProgram возвращает программу по ID.
	// Возвращает ошибку вида shared.ErrNotFound, если записи нет.
	GetProgram(ctx context.Context, id ID) (*Program, error)
}
