package blocktree

import "github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model"

// ConnectOnValidityChanged registers handler to be called synchronously
// whenever the validity of a block changes. It returns an id that can be used
// to disconnect the handler.
func (t *Tree) ConnectOnValidityChanged(handler model.ValidityChangedHandler) int {
	id := t.nextValidityHandlerID
	t.nextValidityHandlerID++
	t.validityHandlers[id] = handler
	t.validityHandlerIDs = append(t.validityHandlerIDs, id)
	return id
}

// Disconnect unregisters the handler with the given id. Unknown ids are ignored.
func (t *Tree) Disconnect(id int) {
	if _, ok := t.validityHandlers[id]; !ok {
		return
	}
	delete(t.validityHandlers, id)
	for i, handlerID := range t.validityHandlerIDs {
		if handlerID == id {
			t.validityHandlerIDs = append(t.validityHandlerIDs[:i], t.validityHandlerIDs[i+1:]...)
			break
		}
	}
}

// notifyValidityChanged calls the handlers connected when it starts. Handlers
// may connect and disconnect handlers; a handler disconnected before its turn
// is skipped.
func (t *Tree) notifyValidityChanged(index *model.BlockIndex) {
	ids := make([]int, len(t.validityHandlerIDs))
	copy(ids, t.validityHandlerIDs)
	for _, id := range ids {
		handler, ok := t.validityHandlers[id]
		if !ok {
			continue
		}
		handler(index)
	}
}
