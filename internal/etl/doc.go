// Package etl — стадии конвертации датасета в ADAM.
//
// Граф одного датасета:
//
//	EditionsTask
//	├── BasicStageTask        (всегда)
//	│   └── download          (fan-out или последовательная загрузка)
//	└── FlattenStageTask      (только если запрошена редакция flat)
//	    └── BasicStageTask
//
// BasicStageTask копирует сырые данные в HDFS (hadoop distcp) и запускает
// adam-submit с командой конвертации. FlattenStageTask запускает
// adam-submit flatten над результатом basic. Готовность стадии —
// _SUCCESS под её префиксом.
//
// Набор зависимостей EditionsTask вычисляется один раз при создании
// из правил DependencyRule и не меняется.
package etl
