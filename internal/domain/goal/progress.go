package goal

import "math"

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS AGGREGATION
// ══════════════════════════════════════════════════════════════════════════════

// ComputeProgress агрегирует метрики цели в процент выполнения (0-100).
//
// Правила:
//   - метрика с положительной целью даёт долю min(value, target) / target,
//     то есть перевыполнение не считается больше 100%;
//   - метрика без цели (или с неположительной целью) даёт долю 0 - без цели
//     нечего "выполнять", это осознанное решение, а не пропущенная фича;
//   - итог - среднее арифметическое долей, умноженное на 100 и округлённое
//     до целого;
//   - пустой набор метрик даёт ровно 0, не ошибку и не NaN.
//
// Функция чистая: не изменяет входные данные и не имеет побочных эффектов.
func ComputeProgress(metrics []*Metric) Progress {
	if len(metrics) == 0 {
		return 0
	}

	var sum float64
	for _, m := range metrics {
		sum += m.Ratio()
	}

	pct := math.Round(sum / float64(len(metrics)) * 100)
	return Progress(pct)
}

// ══════════════════════════════════════════════════════════════════════════════
// STATUS DERIVATION
// ══════════════════════════════════════════════════════════════════════════════

// DeriveStatus выводит статус цели из свежевычисленного прогресса.
//
// Единственный автоматический переход: прогресс 100 форсирует completed
// независимо от текущего статуса (монотонный односторонний переход,
// запускаемый данными, а не действием пользователя). Все остальные
// переходы выполняются только явным действием владельца. Повторный вызов
// на уже завершённой цели - no-op (идемпотентность).
//
// Вызывающая сторона обязана НЕ вызывать DeriveStatus, если прогресс не
// удалось вычислить: в этом случае ошибка выборки метрик пробрасывается
// наверх, статус не угадывается.
func DeriveStatus(current Status, p Progress) Status {
	if p.IsComplete() {
		return StatusCompleted
	}
	return current
}
