// Package grading содержит чистые функции расчёта по оценкам курса.
//
// В пакете два намеренно разных алгоритма среднего балла, их нельзя
// объединять:
//
//   - Variant B (ComputeStats) - структурированная статистика для анализа.
//     Учитываются только валидные работы, у которых есть оценка; неоценённые
//     работы не входят ни в числитель, ни в знаменатель.
//   - Variant A (OverallAverage, CategoryBreakdown) - текстовый контекст для
//     чат-ассистента. Максимум берётся из работы, затем из самой оценки,
//     затем 100.
//
// CompletionClassifier (Classify) решает, участвует ли курс в анализе:
// курс, оценённый на 99% и более по баллам, считается завершённым.
//
// Проценты округляются до одного знака только для отображения; все сравнения
// выполняются по неокруглённым значениям.
package grading
