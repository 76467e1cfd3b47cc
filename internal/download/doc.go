// Package download — загрузка исходных файлов датасета в object store.
//
// Два режима с одним контрактом идемпотентности:
//   - последовательный: DownloadDatasetTask → DownloadFileTask на каждый источник;
//   - fan-out: PreparePartitionTask пишет partition-файл, FanoutDownloadTask
//     раздаёт строки через Dispatcher, каждый исполнитель вызывает Processor.
//
// Объект назначения появляется только целиком (Transfer: scratch →
// временный объект → атомарный move), поэтому его существование служит
// флагом готовности элемента.
package download
