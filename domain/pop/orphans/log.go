package orphans

import "github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/logger"

var log = logger.RegisterSubSystem("ORPH")
