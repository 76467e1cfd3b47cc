// Package scheduler повторяет проход конвейера по cron-расписанию.
//
// Единственный механизм повтора после ExternalCommandFailed и
// TargetUnavailable — повторный вызов прохода. Scheduler делает это
// автоматически: на каждом тике запускается проход, цикл завершается
// при первом успехе или фатальной ошибке.
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    CronExpr:  "@every 15m",
//	    Pass:      func(ctx context.Context) error { _, err := p.Run(ctx, cfg, opts); return err },
//	    Logger:    logger,
//	    Immediate: true,
//	})
//	if err != nil {
//	    return err
//	}
//	return sched.Run(ctx)
//
// Несколько Scheduler'ов над одним датасетом безопасны: проходы
// синхронизируются только существованием targets.
package scheduler
