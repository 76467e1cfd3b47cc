// Package worker обрабатывает строки partition-файлов.
//
// # Обзор
//
// Два исполнителя одного и того же download.Processor:
//
//   - Worker — сервис eggo-worker, потребляет очередь partition.items
//     и отвечает в reply-очередь диспетчера;
//   - RunMapper — mapper Hadoop streaming (`eggo map`), читает строки
//     из stdin и пишет "<url>\t1" в stdout.
//
// Workers масштабируются горизонтально: несколько экземпляров
// потребляют из одной очереди partition.items.
//
// # Обработка строки
//
//  1. Разбор payload (битый payload — в DLQ без повтора)
//  2. Processor.Process: объект уже есть — SKIPPED, иначе загрузка
//  3. Ответ item.completed (SUCCEEDED, SKIPPED или FAILED) в ReplyTo
//  4. Ack
//
// Ошибка загрузки не приводит к requeue: она возвращается диспетчеру,
// повтор делается следующим проходом. Requeue только при сбое
// публикации ответа, повторная обработка безопасна благодаря
// проверке существования.
//
//	w := worker.New(worker.Config{
//	    Processor: processor,
//	    Publisher: publisher,
//	    Conn:      mqConn,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
package worker
