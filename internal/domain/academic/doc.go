// Package academic содержит типизированную модель учебных данных:
// студенты, сессии (семестры), курсы, записи на курсы, рубрики оценивания,
// оценки, документы курсов, отзывы преподавателей и программы.
//
// Все сущности принадлежат внешней системе и доступны только на чтение.
// Пакет ничего не создаёт и не изменяет: он описывает записи и порт
// Repository, через который слой application читает их из хранилища.
//
// Пакет не имеет внешних зависимостей - только стандартная библиотека Go.
package academic
