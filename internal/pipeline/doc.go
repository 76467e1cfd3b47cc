// Package pipeline собирает граф задач датасета и выполняет проходы.
//
// Pipeline владеет всеми сервисами (object store, внешние команды,
// загрузчики, диспетчер fan-out) и строит из PipelineConfig корневую
// задачу:
//
//	vcf2adam(dataset=demo)
//	├── ADAMBasic ── FanoutDownload ── PreparePartition
//	└── ADAMFlatten ── ADAMBasic
//
// С Options.Serial вместо FanoutDownload используется DownloadDataset
// с одной DownloadFile на источник.
//
// Run выполняет проход и ведёт журнал (RunStore, наблюдатели) и метрики.
// Status строит тот же граф и показывает готовность задач без выполнения.
package pipeline
